package mocks

//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-consensus/internal/strategy Provider
//go:generate mockgen -destination=./mock_policy.go -package=mocks github.com/rxtech-lab/argo-consensus/internal/risk Policy,StopAdjuster
