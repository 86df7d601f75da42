package api

import (
	"io"
	"net/url"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/bogdanfinn/tls-client/bandwidth"
)

// MockResponseBody is a ReadCloser that simulates reading response data
type MockResponseBody struct {
	data   []byte
	pos    int
	closed bool
}

// NewMockResponseBody creates a new MockResponseBody with the given data
func NewMockResponseBody(data []byte) *MockResponseBody {
	return &MockResponseBody{data: data, pos: 0}
}

// Read implements the io.Reader interface
func (m *MockResponseBody) Read(p []byte) (n int, err error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n = copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

// Close implements the io.Closer interface
func (m *MockResponseBody) Close() error {
	m.closed = true
	return nil
}

// MockHttpClient is a mock implementation of tls_client.HttpClient for testing
type MockHttpClient struct {
	Response *fhttp.Response
	Err      error

	mu         sync.Mutex
	requests   []*fhttp.Request
	bodies     [][]byte
	idleClosed int
}

// Requests returns the requests seen by Do
func (m *MockHttpClient) Requests() []*fhttp.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*fhttp.Request(nil), m.requests...)
}

// LastBody returns the body of the last request
func (m *MockHttpClient) LastBody() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.bodies) == 0 {
		return nil
	}
	return m.bodies[len(m.bodies)-1]
}

func (m *MockHttpClient) GetCookies(u *url.URL) []*fhttp.Cookie            { return nil }
func (m *MockHttpClient) SetCookies(u *url.URL, cookies []*fhttp.Cookie)   {}
func (m *MockHttpClient) SetCookieJar(jar fhttp.CookieJar)                 {}
func (m *MockHttpClient) GetCookieJar() fhttp.CookieJar                    { return nil }
func (m *MockHttpClient) SetProxy(proxyUrl string) error                   { return nil }
func (m *MockHttpClient) GetProxy() string                                 { return "" }
func (m *MockHttpClient) SetFollowRedirect(followRedirect bool)            {}
func (m *MockHttpClient) GetFollowRedirect() bool                          { return false }
func (m *MockHttpClient) CloseIdleConnections() {
	m.mu.Lock()
	m.idleClosed++
	m.mu.Unlock()
}
func (m *MockHttpClient) GetBandwidthTracker() bandwidth.BandwidthTracker  { return nil }
func (m *MockHttpClient) Get(url string) (*fhttp.Response, error)          { return m.Response, m.Err }
func (m *MockHttpClient) Head(url string) (*fhttp.Response, error)         { return m.Response, m.Err }
func (m *MockHttpClient) Post(url, contentType string, body io.Reader) (*fhttp.Response, error) {
	return m.Response, m.Err
}

// Do implements the tls_client.HttpClient interface and records the request
func (m *MockHttpClient) Do(req *fhttp.Request) (*fhttp.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)
	m.mu.Unlock()
	return m.Response, m.Err
}

// NewMockHttpClient creates a new MockHttpClient with a fixed response
func NewMockHttpClient(body []byte, statusCode int) *MockHttpClient {
	return &MockHttpClient{
		Response: &fhttp.Response{
			StatusCode: statusCode,
			Body:       NewMockResponseBody(body),
			Header:     make(fhttp.Header),
		},
	}
}

// NewMockHttpClientWithError creates a new MockHttpClient that returns an error
func NewMockHttpClientWithError(err error) *MockHttpClient {
	return &MockHttpClient{
		Response: nil,
		Err:      err,
	}
}
