package jogsync

import (
	"context"

	"github.com/2beens/jogtracker/internal/jogs"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=jogsync_test

// NetworkClient is the remote jog service as seen by the coordinator.
// Every call is authorized with the opaque access token obtained at login.
type NetworkClient interface {
	FetchCurrentUser(ctx context.Context, accessToken string) (*jogs.User, error)
	FetchAllData(ctx context.Context, accessToken string) (*jogs.SyncData, error)
	CreateJog(ctx context.Context, jog jogs.Submission, accessToken string) error
	UpdateJog(ctx context.Context, jog jogs.Submission, accessToken string) error
	DeleteJog(ctx context.Context, jogID int, userID string, accessToken string) error
}
