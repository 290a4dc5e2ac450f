package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/auth"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/obs"
	"ministry_hub/internal/store"
)

const (
	resourceKey = "resource"
	factsKey    = "facts"
)

// Load fetches the record named by the :param path parameter and keeps it, with its
// ownership facts, for Require and the handler.
func Load(db *gorm.DB, param string, load store.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, facts, err := load(c.Request.Context(), db, c.Param(param))
		if err != nil {
			abortErr(c, err)
			return
		}
		c.Set(resourceKey, v)
		c.Set(factsKey, &facts)
		c.Next()
	}
}

// Require asks the engine for action on the loaded record, or on no record when the
// route loads none.
func Require(kind authz.Kind, action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		d := p.Engine(kind, loadedFacts(c)).Decide(action)
		obs.ObserveDecision(d)
		if !d.Allowed {
			abortDenied(c, d)
			return
		}
		c.Next()
	}
}

// allowCreate checks creating a kind inside ministryID and aborts when denied.
func allowCreate(c *gin.Context, p *store.Principal, kind authz.Kind, ministryID string) bool {
	d := p.Engine(kind, nil).DecideCreate(ministryID)
	obs.ObserveDecision(d)
	if !d.Allowed {
		abortDenied(c, d)
		return false
	}
	return true
}

func abortDenied(c *gin.Context, d authz.Decision) {
	status := http.StatusForbidden
	var denied *authz.DeniedError
	if errors.As(authz.Deny(d), &denied) {
		status = denied.HTTPStatus()
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":      "forbidden",
		"reason":     d.Reason,
		"permission": authz.Key(d.Kind, d.Action),
	})
}

func abortErr(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func loadedFacts(c *gin.Context) *authz.ResourceFacts {
	v, ok := c.Get(factsKey)
	if !ok {
		return nil
	}
	f, _ := v.(*authz.ResourceFacts)
	return f
}

// loaded returns the record kept by Load.
func loaded[T any](c *gin.Context) *T {
	v, _ := c.Get(resourceKey)
	t, _ := v.(*T)
	return t
}

// principal returns the acting user; JWT guarantees it on protected routes.
func principal(c *gin.Context) *store.Principal {
	p, _ := auth.FromContext(c)
	return p
}

// engine builds an engine for kind on the loaded record.
func engine(c *gin.Context, kind authz.Kind) *authz.Engine {
	return principal(c).Engine(kind, loadedFacts(c))
}

// permissions lists the catalogue decisions for the loaded record.
func permissions(e *authz.Engine) map[string]bool {
	out := make(map[string]bool, len(authz.CatalogueActions))
	for _, a := range authz.CatalogueActions {
		out[string(a)] = e.HasPermission(string(a))
	}
	return out
}
