package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scriba/internal/pkg/audio"
	"github.com/pkg/errors"
)

// PrmAudio is the multipart field carrying audio
const PrmAudio = "audio"

// Client sends audio to the speech-to-text service
type Client struct {
	httpclient *http.Client
	uploadURL  string
	timeout    time.Duration
}

// NewClient creates a transcriber client, timeout 0 leaves the call without a deadline
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("no transcriber URL")
	}
	if !strings.HasPrefix(baseURL, "http") {
		return nil, errors.Errorf("no http in transcriber URL '%s'", baseURL)
	}
	if timeout < 0 {
		return nil, errors.Errorf("wrong timeout %v", timeout)
	}
	res := Client{}
	var err error
	res.uploadURL, err = url.JoinPath(baseURL, "upload")
	if err != nil {
		return nil, fmt.Errorf("can't prepare upload URL: %w", err)
	}
	res.timeout = timeout
	res.httpclient = asrHTTPClient()
	goapp.Log.Info().Str("url", res.uploadURL).Dur("timeout", timeout).Msg("cfg: transcriber")
	return &res, nil
}

type transcribeResponse struct {
	Transcript *string `json:"transcript"`
}

// Transcribe uploads audio and returns the recognized text.
// Every failure is wrapped so errors.Is(err, ErrRequest) holds.
func (sp *Client) Transcribe(ctx context.Context, p *audio.Payload) (string, error) {
	if p == nil {
		return "", errors.New("no audio")
	}
	body, contentType, err := buildForm(p)
	if err != nil {
		return "", err
	}
	res, err := sp.upload(ctx, body, contentType)
	if err != nil {
		return "", newRequestError(err)
	}
	return res, nil
}

func buildForm(p *audio.Payload) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, PrmAudio, escapeQuotes(p.Name)))
	h.Set("Content-Type", p.MIMEType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("can't add file to request: %w", err)
	}
	if _, err = part.Write(p.Content); err != nil {
		return nil, "", fmt.Errorf("can't add file content to request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("can't close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func (sp *Client) upload(ctx context.Context, body io.Reader, contentType string) (string, error) {
	if sp.timeout > 0 {
		var cancelF context.CancelFunc
		ctx, cancelF = context.WithTimeout(ctx, sp.timeout)
		defer cancelF()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sp.uploadURL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	goapp.Log.Info().Str("url", req.URL.String()).Str("method", req.Method).Msg("call")
	resp, err := sp.httpclient.Do(req)
	if err != nil {
		return "", fmt.Errorf("can't call: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
		_ = resp.Body.Close()
	}()
	if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
		return "", fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
	}
	br, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("can't read body: %w", err)
	}
	var respData transcribeResponse
	if err = json.Unmarshal(br, &respData); err != nil {
		return "", fmt.Errorf("can't decode response: %w", err)
	}
	if respData.Transcript == nil {
		return "", errors.New("no transcript in response")
	}
	return *respData.Transcript, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func asrHTTPClient() *http.Client {
	return &http.Client{Transport: newTransport()}
}

func newTransport() http.RoundTripper {
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxIdleConns = 10
	res.MaxIdleConnsPerHost = 10
	res.IdleConnTimeout = 90 * time.Second
	return res
}
