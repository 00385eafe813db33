// ABOUTME: Google People API client for contacts sync
// ABOUTME: Creates authenticated People API service and pages through connections
package sync

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

const personFields = "names,emailAddresses,phoneNumbers,organizations,biographies"

// PeopleLister returns one page of the user's connections.
type PeopleLister interface {
	ListConnections(ctx context.Context, pageToken string) (*people.ListConnectionsResponse, error)
}

// PeopleClient adapts the People API service to PeopleLister.
type PeopleClient struct {
	svc *people.Service
}

// NewPeopleClient creates a new Google People API client.
func NewPeopleClient(ctx context.Context, token *oauth2.Token) (*PeopleClient, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	config := NewOAuthConfig()
	client := config.Client(ctx, token)

	service, err := people.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}

	return &PeopleClient{svc: service}, nil
}

func (c *PeopleClient) ListConnections(ctx context.Context, pageToken string) (*people.ListConnectionsResponse, error) {
	call := c.svc.People.Connections.List("people/me").
		PageSize(1000).
		PersonFields(personFields).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}
