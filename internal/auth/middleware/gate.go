package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/auth/service"
	"github.com/victorgomez09/sgc/internal/cerr"
	"github.com/victorgomez09/sgc/pkg/trace"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	tokenKey    contextKey = "token"
)

// Identifier resolves a bearer token to its user.
type Identifier interface {
	Identify(ctx context.Context, signed string) (*models.Identity, *models.Token, error)
}

// Authorizer decides whether a user may perform an action on a module.
type Authorizer interface {
	Resolve(ctx context.Context, user *models.Identity, module models.Module, action models.Action) (service.Decision, error)
}

// Gate authenticates requests by bearer token and enforces the permission each
// route declares. Paths in the public set skip authentication.
type Gate struct {
	identifier Identifier
	authorizer Authorizer
	public     map[string]bool
	logger     *zap.Logger
}

func NewGate(identifier Identifier, authorizer Authorizer, logger *zap.Logger, publicPaths ...string) *Gate {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}
	return &Gate{
		identifier: identifier,
		authorizer: authorizer,
		public:     public,
		logger:     logger,
	}
}

// Authenticate requires a valid bearer token on every non-public path and
// stores the identity and token in the request context.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.public[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		signed, ok := bearerToken(r)
		if !ok {
			cerr.WriteFail(w, http.StatusUnauthorized, cerr.MsgUnauthenticated)
			return
		}

		user, token, err := g.identifier.Identify(r.Context(), signed)
		if err != nil {
			c := cerr.Classify(err)
			if c.Status == http.StatusInternalServerError {
				g.logger.Error("Token identification failed",
					zap.String("request_id", trace.GetRequestID(r.Context())),
					zap.Error(err))
				cerr.WriteFail(w, http.StatusInternalServerError, cerr.MsgInternal)
				return
			}
			cerr.WriteFail(w, http.StatusUnauthorized, cerr.MsgUnauthenticated)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user, token)))
	})
}

// Require admits the request only if the caller's profile grants action on
// module. Errors while loading grants deny with 500.
func (g *Gate) Require(module models.Module, action models.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := IdentityFrom(r.Context())
			if !ok {
				cerr.WriteFail(w, http.StatusUnauthorized, cerr.MsgUnauthenticated)
				return
			}

			decision, err := g.authorizer.Resolve(r.Context(), user, module, action)
			if err != nil {
				g.logger.Error("Permission check failed",
					zap.String("request_id", trace.GetRequestID(r.Context())),
					zap.Int64("user_id", user.ID),
					zap.String("module", string(module)),
					zap.String("action", string(action)),
					zap.Error(err))
				cerr.WriteFail(w, http.StatusInternalServerError, cerr.MsgInternal)
				return
			}

			if !decision.Allowed {
				g.logger.Info("Access denied",
					zap.String("request_id", trace.GetRequestID(r.Context())),
					zap.Int64("user_id", user.ID),
					zap.String("module", string(module)),
					zap.String("action", string(action)))
				cerr.WriteFail(w, http.StatusForbidden, DeniedMessage(decision.Profile, module, action))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireDeclared is Require for the textual form "perfil:MODULE,ACTION".
// It panics on an invalid declaration.
func (g *Gate) RequireDeclared(decl string) func(http.Handler) http.Handler {
	req := models.MustRequirement(decl)
	return g.Require(req.Module, req.Action)
}

// DeniedMessage is the 403 message for a missing permission.
func DeniedMessage(profile *models.Profile, module models.Module, action models.Action) string {
	if profile == nil {
		return "Acesso negado. Seu perfil não possui permissão."
	}
	return fmt.Sprintf("Acesso negado. O perfil \"%s\" não possui permissão %s no módulo %s.",
		profile.Nome, action.Label(), module)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// IdentityFrom returns the authenticated user of the request.
func IdentityFrom(ctx context.Context) (*models.Identity, bool) {
	user, ok := ctx.Value(identityKey).(*models.Identity)
	return user, ok && user != nil
}

// TokenFrom returns the token record the request was authenticated with.
func TokenFrom(ctx context.Context) (*models.Token, bool) {
	token, ok := ctx.Value(tokenKey).(*models.Token)
	return token, ok && token != nil
}

// WithIdentity returns a copy of ctx carrying user and token, as Authenticate does.
func WithIdentity(ctx context.Context, user *models.Identity, token *models.Token) context.Context {
	ctx = context.WithValue(ctx, identityKey, user)
	return context.WithValue(ctx, tokenKey, token)
}
