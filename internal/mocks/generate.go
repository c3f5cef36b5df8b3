// Package mocks provides gomock implementations of the core ports for service tests.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	jobs := mocks.NewMockJobRepository(ctrl)
//	jobs.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(&model.ClaimResult{Outcome: model.ClaimAccepted}, nil)
package mocks

// Persistence ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/target/jobmatch/internal/core JobRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=expiry_repository_mock.go github.com/target/jobmatch/internal/core ExpiryRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=location_repository_mock.go github.com/target/jobmatch/internal/core LocationRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=worker_repository_mock.go github.com/target/jobmatch/internal/core WorkerRepository

// External collaborators.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=vision_estimator_mock.go github.com/target/jobmatch/internal/core VisionEstimator
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_parser_mock.go github.com/target/jobmatch/internal/core JobParser
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=weather_provider_mock.go github.com/target/jobmatch/internal/core WeatherProvider
