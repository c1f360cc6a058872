package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const (
	endpointNewSession      = "/session/new"
	endpointSessionData     = "/session/data"
	endpointSaveSession     = "/session/save"
	endpointSimilarity      = "/similarity"
	endpointGenerateQueries = "/generate_queries"
)

// SessionPayload is the reply of GET /session/data
type SessionPayload struct {
	Data    *SessionData `json:"data"`
	Summary string       `json:"summary,omitempty"`
}

// RemoteService is the typed view of the remote session and scoring service.
// Every call goes through the retrying Client.
type RemoteService struct {
	client *Client
}

// NewRemoteService wraps client
func NewRemoteService(client *Client) *RemoteService {
	return &RemoteService{client: client}
}

// Client returns the underlying retrying client
func (r *RemoteService) Client() *Client {
	return r.client
}

// NewSession asks the service to mint a session identifier
func (r *RemoteService) NewSession(ctx context.Context) (string, error) {
	resp, err := r.client.Call(ctx, endpointNewSession, RequestOptions{Method: http.MethodPost}, 0)
	if err != nil {
		return "", err
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", &DecodeError{Endpoint: endpointNewSession, Err: err}
	}
	if out.SessionID == "" {
		return "", &DecodeError{Endpoint: endpointNewSession, Err: fmt.Errorf("missing session_id")}
	}
	return out.SessionID, nil
}

// SessionData fetches the stored blob for id. A nil Data means the service
// does not know the session.
func (r *RemoteService) SessionData(ctx context.Context, id string) (*SessionPayload, error) {
	resp, err := r.client.Call(ctx, endpointSessionData, RequestOptions{
		Method: http.MethodGet,
		Query:  map[string]string{"session_id": id},
	}, 0)
	if err != nil {
		return nil, err
	}
	var out SessionPayload
	if err := resp.Decode(&out); err != nil {
		return nil, &DecodeError{Endpoint: endpointSessionData, Err: err}
	}
	return &out, nil
}

// SaveSession stores data under id and returns the summary the service derived
func (r *RemoteService) SaveSession(ctx context.Context, id string, data SessionData) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"session_id": id,
		"data":       data,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}
	resp, err := r.client.Call(ctx, endpointSaveSession, RequestOptions{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}, 0)
	if err != nil {
		return "", err
	}
	var out struct {
		Summary string `json:"summary"`
	}
	// A save without a JSON reply is still a save.
	if resp.IsJSON() {
		if err := resp.Decode(&out); err != nil {
			return "", &DecodeError{Endpoint: endpointSaveSession, Err: err}
		}
	}
	return out.Summary, nil
}

// Similarity scores query against text. ok is false when the service
// answered without a numeric score.
func (r *RemoteService) Similarity(ctx context.Context, sessionID, query, text string) (score float64, ok bool, err error) {
	form := url.Values{}
	form.Set("text1", query)
	form.Set("text2", text)
	resp, err := r.client.Call(ctx, endpointSimilarity, RequestOptions{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}},
		Body:   []byte(form.Encode()),
		Query:  map[string]string{"session_id": sessionID},
	}, 0)
	if err != nil {
		return 0, false, err
	}
	m, isMap := resp.Data.(map[string]interface{})
	if !isMap {
		return 0, false, nil
	}
	v, isNum := m["similarity_score"].(float64)
	if !isNum {
		return 0, false, nil
	}
	return v, true, nil
}

// GenerateQueries asks the service for search intents matching text
func (r *RemoteService) GenerateQueries(ctx context.Context, text string) ([]string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("marshaling text: %w", err)
	}
	resp, err := r.client.Call(ctx, endpointGenerateQueries, RequestOptions{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}, 0)
	if err != nil {
		return nil, err
	}
	var out struct {
		Intents []string `json:"intents"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, &DecodeError{Endpoint: endpointGenerateQueries, Err: err}
	}
	if out.Intents == nil {
		return nil, &DecodeError{Endpoint: endpointGenerateQueries, Err: fmt.Errorf("missing intents")}
	}
	return out.Intents, nil
}
