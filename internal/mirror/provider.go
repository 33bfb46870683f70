package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Provider moves snapshots to and from the remote mirror.
type Provider interface {
	Pull(ctx context.Context) (*Snapshot, error)
	Push(ctx context.Context, s *Snapshot) error
}

// FileProvider mirrors to a JSON file of tables. Writes go through a temp
// file and rename so readers never see a half-written mirror.
type FileProvider struct {
	Path string
}

func (p FileProvider) Pull(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{}, nil
		}
		return nil, err
	}
	var tables []Table
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("read mirror %s: %w", p.Path, err)
	}
	return Decode(tables)
}

func (p FileProvider) Push(_ context.Context, s *Snapshot) error {
	tables, err := Encode(s)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return err
	}
	tmp := p.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p.Path)
}

// HTTPProvider mirrors against a remote endpoint speaking the tables format.
type HTTPProvider struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func (p HTTPProvider) Pull(ctx context.Context) (*Snapshot, error) {
	var tables []Table
	if err := p.do(ctx, http.MethodGet, nil, &tables); err != nil {
		return nil, err
	}
	return Decode(tables)
}

func (p HTTPProvider) Push(ctx context.Context, s *Snapshot) error {
	tables, err := Encode(s)
	if err != nil {
		return err
	}
	return p.do(ctx, http.MethodPut, tables, nil)
}

func (p HTTPProvider) do(ctx context.Context, method string, body, out any) error {
	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	url := strings.TrimRight(p.BaseURL, "/") + "/mirror"
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("X-Api-Key", p.APIKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mirror %s: status=%d body=%s", method, resp.StatusCode, string(b))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
