package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/flotiq/flotiq-setup/internal/auth"
	"github.com/flotiq/flotiq-setup/internal/auth/constants"
	"github.com/flotiq/flotiq-setup/internal/auth/models"
	"github.com/flotiq/flotiq-setup/internal/logger"
	"github.com/flotiq/flotiq-setup/internal/utils"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Outcome is what the callback produced. Exactly one of Result and Err is set.
type Outcome struct {
	Result *models.CallbackResult
	Err    error
}

// Callback handles the login page redirect. Only the first GET is processed;
// its outcome is delivered once on Done.
type Callback struct {
	scope models.Scope
	once  sync.Once
	done  chan Outcome
}

// NewCallback creates a handler expecting the keys of scope
func NewCallback(scope models.Scope) *Callback {
	return &Callback{
		scope: scope,
		done:  make(chan Outcome, 1),
	}
}

// Done receives the single outcome
func (h *Callback) Done() <-chan Outcome {
	return h.done
}

func (h *Callback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	handled := false
	h.once.Do(func() {
		handled = true
		h.process(w, r)
	})

	if !handled {
		logger.Warn("Ignoring repeated callback request")
		utils.WriteText(w, http.StatusGone, constants.GoneBody)
	}
}

func (h *Callback) process(w http.ResponseWriter, r *http.Request) {
	result, err := ParseCallback(r.URL.Query(), h.scope)
	if err != nil {
		logger.Error("Callback reported a failed login", zap.Error(err))
		utils.WriteText(w, http.StatusInternalServerError, constants.FailureBody)
		h.done <- Outcome{Err: err}
		return
	}

	utils.WriteText(w, http.StatusOK, constants.SuccessBody)
	h.done <- Outcome{Result: result}
}

// ParseCallback extracts the callback result for scope from the query.
// A rejected or failed status, an unknown status and a missing requested key
// are all reported as *auth.Error.
func ParseCallback(query url.Values, scope models.Scope) (*models.CallbackResult, error) {
	switch status := models.Status(query.Get(constants.ParamStatus)); status {
	case models.StatusRejected, models.StatusFailed:
		return nil, auth.StatusError(status)
	case "", models.StatusOK:
	default:
		return nil, &auth.Error{
			Kind:   auth.KindAuthFailed,
			Status: models.StatusFailed,
			Err:    fmt.Errorf("unknown callback status %q", string(status)),
		}
	}

	result := &models.CallbackResult{
		APIKeyReadOnly:  firstValue(query, constants.ParamAPIKey, constants.LegacyParamAPIKey),
		APIKeyReadWrite: firstValue(query, constants.ParamAPIKeyRW, constants.LegacyParamAPIKeyRW),
		Status:          models.StatusOK,
	}

	var missing error
	if scope.WantsReadOnly() && result.APIKeyReadOnly == "" {
		missing = multierr.Append(missing, fmt.Errorf("missing %s", constants.ParamAPIKey))
	}
	if scope.WantsReadWrite() && result.APIKeyReadWrite == "" {
		missing = multierr.Append(missing, fmt.Errorf("missing %s", constants.ParamAPIKeyRW))
	}
	if missing != nil {
		return nil, &auth.Error{
			Kind:   auth.KindAuthFailed,
			Status: models.StatusFailed,
			Err:    missing,
		}
	}

	return result, nil
}

func firstValue(query url.Values, keys ...string) string {
	for _, key := range keys {
		if v := query.Get(key); v != "" {
			return v
		}
	}
	return ""
}
