package auth

import (
	"os"
	"time"
)

// Environment variables holding a hub token, in lookup order
var tokenEnvVars = []string{"HF_TOKEN", "HUGGING_FACE_HUB_TOKEN"}

// EnvironmentStore implements CredentialStore on top of the token
// environment variables. It is read-only.
type EnvironmentStore struct {
	lookup func(string) (string, bool)
}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{lookup: os.LookupEnv}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve returns the token found in the environment. The name is only
// used to label the result.
func (e *EnvironmentStore) Retrieve(name string) (*Credential, error) {
	token := e.token()
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = "environment"
	}
	endpoint, _ := e.lookup("HF_ENDPOINT")

	return &Credential{
		Name:         name,
		Token:        token,
		Endpoint:     endpoint,
		LastModified: time.Now(),
	}, nil
}

// List returns a single credential if a token variable is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if a token variable is set
func (e *EnvironmentStore) Exists(name string) bool {
	return e.token() != ""
}

func (e *EnvironmentStore) token() string {
	for _, key := range tokenEnvVars {
		if v, ok := e.lookup(key); ok && v != "" {
			return v
		}
	}
	return ""
}
