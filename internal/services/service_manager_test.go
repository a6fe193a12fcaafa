package services

import (
	"context"
	"testing"

	"github.com/coursehub/lms-service/internal/events"
	"github.com/coursehub/lms-service/internal/validator"
)

func TestServiceManager_Initialize(t *testing.T) {
	tests := []struct {
		name    string
		deps    func() ServiceManagerDeps
		wantErr bool
	}{
		{
			name: "full dependency set",
			deps: func() ServiceManagerDeps {
				return ServiceManagerDeps{
					Repo:      newFakeRepository(),
					Logger:    testLogger(),
					Validator: validator.NewBusinessValidator(),
					Publisher: events.NewMockEventPublisher(),
					Storage:   &memoryStorage{},
				}
			},
			wantErr: false,
		},
		{
			name: "missing repository",
			deps: func() ServiceManagerDeps {
				return ServiceManagerDeps{
					Logger:    testLogger(),
					Validator: validator.NewBusinessValidator(),
					Publisher: events.NewMockEventPublisher(),
				}
			},
			wantErr: true,
		},
		{
			name: "missing publisher",
			deps: func() ServiceManagerDeps {
				return ServiceManagerDeps{
					Repo:      newFakeRepository(),
					Logger:    testLogger(),
					Validator: validator.NewBusinessValidator(),
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewServiceManager(tt.deps())
			err := sm.Initialize(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServiceManager_Lifecycle(t *testing.T) {
	deps := ServiceManagerDeps{
		Repo:      newFakeRepository(),
		Logger:    testLogger(),
		Validator: validator.NewBusinessValidator(),
		Publisher: events.NewMockEventPublisher(),
		Storage:   &memoryStorage{},
	}

	t.Run("getters panic before initialization", func(t *testing.T) {
		sm := NewServiceManager(deps)

		defer func() {
			if recover() == nil {
				t.Error("expected Course() to panic before Initialize")
			}
		}()
		sm.Course()
	})

	t.Run("getters return services after initialization", func(t *testing.T) {
		sm := NewServiceManager(deps)
		if err := sm.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}

		if sm.Course() == nil || sm.Assignment() == nil || sm.Forum() == nil || sm.Gradebook() == nil {
			t.Error("expected all services to be wired")
		}
		if err := sm.HealthCheck(context.Background()); err != nil {
			t.Errorf("HealthCheck failed: %v", err)
		}
	})

	t.Run("shutdown is idempotent", func(t *testing.T) {
		sm := NewServiceManager(deps)
		if err := sm.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}

		if err := sm.Shutdown(context.Background()); err != nil {
			t.Fatalf("first Shutdown failed: %v", err)
		}
		if err := sm.Shutdown(context.Background()); err != nil {
			t.Fatalf("second Shutdown failed: %v", err)
		}
		if err := sm.HealthCheck(context.Background()); err == nil {
			t.Error("expected HealthCheck to fail after shutdown")
		}
	})
}
