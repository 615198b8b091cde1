package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultYandexAPI = "https://cloud-api.yandex.net/v1/disk/resources"

// YandexDisk uploads through the Yandex Disk REST API and publishes the result.
type YandexDisk struct {
	Token   string
	Folder  string
	BaseURL string
	Client  *http.Client
}

func NewYandexDisk(token, folder string) *YandexDisk {
	if folder == "" {
		folder = "LabelBot"
	}
	return &YandexDisk{
		Token:   token,
		Folder:  folder,
		BaseURL: DefaultYandexAPI,
		Client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

type apiError struct {
	Op     string
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("yandex disk %s: status %d: %s", e.Op, e.Status, e.Body)
}

func (y *YandexDisk) Upload(ctx context.Context, r io.Reader, name string) (string, error) {
	full := path.Join(y.Folder, uuid.NewString()[:8]+"_"+sanitize(name))

	// Creating an existing folder answers 409, which is fine.
	if _, err := y.call(ctx, http.MethodPut, "", url.Values{"path": {y.Folder}}, nil, "mkdir"); err != nil {
		return "", err
	}

	var link struct {
		Href string `json:"href"`
	}
	if _, err := y.call(ctx, http.MethodGet, "/upload", url.Values{"path": {full}, "overwrite": {"true"}}, &link, "upload link"); err != nil {
		return "", err
	}
	if link.Href == "" {
		return "", &apiError{Op: "upload link", Status: http.StatusOK, Body: "empty href"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, link.Href, r)
	if err != nil {
		return "", err
	}
	resp, err := y.Client.Do(req)
	if err != nil {
		return "", err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return "", &apiError{Op: "put", Status: resp.StatusCode}
	}

	if _, err := y.call(ctx, http.MethodPut, "/publish", url.Values{"path": {full}}, nil, "publish"); err != nil {
		return "", err
	}

	var meta struct {
		PublicURL string `json:"public_url"`
	}
	if _, err := y.call(ctx, http.MethodGet, "", url.Values{"path": {full}}, &meta, "meta"); err != nil {
		return "", err
	}
	if meta.PublicURL == "" {
		return "", &apiError{Op: "meta", Status: http.StatusOK, Body: "no public_url"}
	}
	return meta.PublicURL, nil
}

func (y *YandexDisk) call(ctx context.Context, method, suffix string, q url.Values, dst any, op string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, y.BaseURL+suffix+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "OAuth "+y.Token)
	req.Header.Set("Accept", "application/json")
	resp, err := y.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("yandex disk %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && !(op == "mkdir" && resp.StatusCode == http.StatusConflict) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, &apiError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return resp.StatusCode, fmt.Errorf("yandex disk %s: decode: %w", op, err)
		}
	}
	return resp.StatusCode, nil
}

func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '?', '*', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "file"
	}
	return name
}
