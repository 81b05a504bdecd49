package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// FirebaseAuthClient wraps the Firebase Auth SDK for token verification
// and identity lookups.
type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// VerifyToken validates an ID token and returns the subject uid.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

// GetUserRecord fetches the identity record behind a uid. Used to seed the
// local user document on first sign-in.
func (f *FirebaseAuthClient) GetUserRecord(ctx context.Context, uid string) (*auth.UserRecord, error) {
	return f.client.GetUser(ctx, uid)
}

// TestConnection probes the Auth backend with a throwaway lookup so the
// health endpoint can report connectivity.
func (f *FirebaseAuthClient) TestConnection(ctx context.Context) error {
	_, err := f.client.GetUsers(ctx, []auth.UserIdentifier{auth.UIDIdentifier{UID: "health-check-probe"}})
	return err
}
