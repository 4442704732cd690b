package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dododo1295/studyroute/config"
)

// JSONBinStore keeps the user document in a jsonbin.io bin. The master key is
// read from server configuration and never leaves the process.
type JSONBinStore struct {
	documentStore
}

// NewJSONBinStore builds the driver. client may be nil to use a client with cfg.Timeout.
func NewJSONBinStore(cfg config.JSONBinConfig, client *http.Client) *JSONBinStore {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	s := &JSONBinStore{}
	s.documentStore.backend = &jsonbinBackend{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		binID:     cfg.BinID,
		masterKey: cfg.MasterKey,
		client:    client,
	}
	return s
}

type jsonbinBackend struct {
	baseURL   string
	binID     string
	masterKey string
	client    *http.Client
}

func (*jsonbinBackend) name() string { return "jsonbin" }

func (b *jsonbinBackend) binURL(suffix string) string {
	return fmt.Sprintf("%s/b/%s%s", b.baseURL, b.binID, suffix)
}

func (b *jsonbinBackend) do(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Master-Key", b.masterKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, url, resp.StatusCode)
	}
	return data, nil
}

// load fetches the latest version. A bin without a users map counts as empty.
func (b *jsonbinBackend) load(ctx context.Context) (*Document, error) {
	data, err := b.do(ctx, http.MethodGet, b.binURL("/latest"), nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Record json.RawMessage `json:"record"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode bin: %w", err)
	}
	payload := envelope.Record
	if len(payload) == 0 {
		payload = data
	}
	return DecodeDocument(bytes.NewReader(payload))
}

func (b *jsonbinBackend) save(ctx context.Context, doc *Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = b.do(ctx, http.MethodPut, b.binURL(""), bytes.NewReader(body))
	return err
}

func (b *jsonbinBackend) ping(ctx context.Context) error {
	_, err := b.load(ctx)
	return err
}
