// Package extauthz adapts oidcfilter.Filter to Envoy's ext_authz gRPC
// contract (envoy.service.auth.v3.Authorization), the transport surface
// this filter is actually deployed behind. Nothing outside this package
// knows about go-control-plane or gRPC; the core decision logic in
// oidcfilter stays free of any proxy-specific type.
package extauthz

import (
	"context"

	corev3 "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	authv3 "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	typev3 "github.com/envoyproxy/go-control-plane/envoy/type/v3"
	"github.com/google/uuid"
	rpccode "google.golang.org/genproto/googleapis/rpc/code"
	rpcstatus "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/openauthz/oidcauthzfilter/internal/logger"
	"github.com/openauthz/oidcauthzfilter/internal/oidcerrors"
	"github.com/openauthz/oidcauthzfilter/oidcfilter"
)

// Server implements authv3.AuthorizationServer against one oidcfilter.Filter.
type Server struct {
	authv3.UnimplementedAuthorizationServer

	filter *oidcfilter.Filter
	logger logger.Logger
}

// NewServer wraps filter for gRPC serving. log is used only for
// per-request correlation; every security decision still happens inside
// filter.
func NewServer(filter *oidcfilter.Filter, log logger.Logger) *Server {
	if log == nil {
		log = logger.NoOp{}
	}
	return &Server{filter: filter, logger: log}
}

// Check implements authv3.AuthorizationServer. Each call gets its own
// correlation ID purely for log correlation; it never influences the
// decision and is never derived from anything CSRF-sensitive.
func (s *Server) Check(ctx context.Context, req *authv3.CheckRequest) (*authv3.CheckResponse, error) {
	requestID := uuid.NewString()
	log := s.logger.WithField("request_id", requestID)

	httpReq := req.GetAttributes().GetRequest().GetHttp()
	filterReq := oidcfilter.Request{
		Method:  httpReq.GetMethod(),
		Scheme:  httpReq.GetScheme(),
		Host:    httpReq.GetHost(),
		Path:    httpReq.GetPath(),
		Headers: httpReq.GetHeaders(),
	}

	decision := s.filter.Process(ctx, filterReq)
	log.Debugf("decision allow=%v code=%s host=%s", decision.Allow, decision.Code, filterReq.Host)

	return toCheckResponse(decision), nil
}

func toCheckResponse(d oidcfilter.Decision) *authv3.CheckResponse {
	if d.Allow {
		return &authv3.CheckResponse{
			Status: &rpcstatus.Status{Code: int32(rpccode.Code_OK)},
			HttpResponse: &authv3.CheckResponse_OkResponse{
				OkResponse: &authv3.OkHttpResponse{
					Headers: toHeaderValueOptions(d.Headers),
				},
			},
		}
	}

	return &authv3.CheckResponse{
		Status: &rpcstatus.Status{Code: int32(toRPCCode(d.Code))},
		HttpResponse: &authv3.CheckResponse_DeniedResponse{
			DeniedResponse: &authv3.DeniedHttpResponse{
				Status:  &typev3.HttpStatus{Code: toHTTPStatusCode(d)},
				Headers: toHeaderValueOptions(d.Headers),
				Body:    d.Message,
			},
		},
	}
}

func toRPCCode(code oidcerrors.Code) rpccode.Code {
	switch code {
	case oidcerrors.OK:
		return rpccode.Code_OK
	case oidcerrors.Unauthenticated:
		return rpccode.Code_UNAUTHENTICATED
	case oidcerrors.InvalidArgument:
		return rpccode.Code_INVALID_ARGUMENT
	case oidcerrors.Internal:
		return rpccode.Code_INTERNAL
	default:
		return rpccode.Code_UNKNOWN
	}
}

// toHTTPStatusCode picks the status line the browser actually sees. A
// redirect (state machine sends the user on to the IdP or back to the
// landing page) always wins over the generic code-to-status mapping.
func toHTTPStatusCode(d oidcfilter.Decision) typev3.StatusCode {
	if d.HTTPStatus == 302 {
		return typev3.StatusCode_Found
	}
	switch d.Code {
	case oidcerrors.InvalidArgument:
		return typev3.StatusCode_BadRequest
	case oidcerrors.Unauthenticated:
		return typev3.StatusCode_Unauthorized
	case oidcerrors.Internal:
		return typev3.StatusCode_InternalServerError
	case oidcerrors.Unknown:
		return typev3.StatusCode_BadGateway
	default:
		return typev3.StatusCode_Forbidden
	}
}

// toHeaderValueOptions preserves append semantics for Set-Cookie: a
// callback response can carry more than one Set-Cookie line (state
// deletion plus id-token, sometimes access-token too), and each has to
// survive as its own header rather than overwrite the last.
func toHeaderValueOptions(headers []oidcfilter.Header) []*corev3.HeaderValueOption {
	out := make([]*corev3.HeaderValueOption, 0, len(headers))
	for _, h := range headers {
		out = append(out, &corev3.HeaderValueOption{
			Header: &corev3.HeaderValue{Key: h.Name, Value: h.Value},
			Append: wrapperspb.Bool(h.Name == "Set-Cookie"),
		})
	}
	return out
}
