package extauthz

import (
	"context"
	"testing"

	authv3 "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	typev3 "github.com/envoyproxy/go-control-plane/envoy/type/v3"
	"github.com/stretchr/testify/require"
	rpccode "google.golang.org/genproto/googleapis/rpc/code"

	"github.com/openauthz/oidcauthzfilter/internal/logger"
	"github.com/openauthz/oidcauthzfilter/oidcfilter"
)

type stubCryptor struct{}

func (stubCryptor) Encrypt(plaintext string) (string, error) { return "enc:" + plaintext, nil }
func (stubCryptor) Decrypt(ciphertext string) (string, bool)  { return "", false }

type stubHTTPClient struct{}

func (stubHTTPClient) Post(ctx context.Context, url string, headers map[string]string, body string) (*oidcfilter.HTTPResponse, error) {
	return nil, nil
}

type stubTokenParser struct{}

func (stubTokenParser) Parse(clientID, expectedNonce string, rawBody []byte) (*oidcfilter.TokenResult, bool) {
	return nil, false
}

type stubRandom struct{}

func (stubRandom) Generate(n int) (string, error) { return "aaaaaaaa", nil }

func newTestFilter(t *testing.T) *oidcfilter.Filter {
	t.Helper()
	cfg := oidcfilter.Config{
		AuthorizationEndpoint: "https://idp.example.com/authorize",
		TokenEndpoint:         "https://idp.example.com/token",
		CallbackURI:           "https://app.example.com/callback",
		LandingPageURI:        "https://app.example.com/",
		ClientID:              "client-123",
		ClientSecret:          "shh",
		IDTokenHeader:         oidcfilter.TokenHeaderConfig{Name: "x-id-token"},
		RequireHTTPS:          true,
	}
	f, err := oidcfilter.New(cfg, stubCryptor{}, stubHTTPClient{}, stubTokenParser{}, stubRandom{}, logger.NoOp{})
	require.NoError(t, err)
	return f
}

func TestCheckRedirectsToIdP(t *testing.T) {
	srv := NewServer(newTestFilter(t), logger.NoOp{})

	resp, err := srv.Check(context.Background(), &authv3.CheckRequest{
		Attributes: &authv3.AttributeContext{
			Request: &authv3.AttributeContext_Request{
				Http: &authv3.AttributeContext_HttpRequest{
					Scheme:  "https",
					Host:    "app.example.com",
					Path:    "/dashboard",
					Method:  "GET",
					Headers: map[string]string{},
				},
			},
		},
	})

	require.NoError(t, err)
	require.Equal(t, int32(rpccode.Code_UNAUTHENTICATED), resp.GetStatus().GetCode())
	denied := resp.GetDeniedResponse()
	require.NotNil(t, denied)
	require.Equal(t, typev3.StatusCode_Found, denied.GetStatus().GetCode())

	var sawLocation bool
	for _, h := range denied.GetHeaders() {
		if h.GetHeader().GetKey() == "Location" {
			sawLocation = true
		}
	}
	require.True(t, sawLocation)
}

func TestCheckMalformedRequestIsInvalidArgument(t *testing.T) {
	srv := NewServer(newTestFilter(t), logger.NoOp{})

	resp, err := srv.Check(context.Background(), &authv3.CheckRequest{
		Attributes: &authv3.AttributeContext{
			Request: &authv3.AttributeContext_Request{
				Http: &authv3.AttributeContext_HttpRequest{
					Scheme:  "https",
					Host:    "",
					Path:    "/dashboard",
					Headers: map[string]string{},
				},
			},
		},
	})

	require.NoError(t, err)
	require.Equal(t, int32(rpccode.Code_INVALID_ARGUMENT), resp.GetStatus().GetCode())
}

func TestHeaderValueOptionsMarkSetCookieAsAppend(t *testing.T) {
	headers := toHeaderValueOptions([]oidcfilter.Header{
		{Name: "Set-Cookie", Value: "a=b"},
		{Name: "Location", Value: "https://example.com"},
	})
	require.Len(t, headers, 2)
	require.True(t, headers[0].GetAppend().GetValue())
	require.False(t, headers[1].GetAppend().GetValue())
}
