// Package handlers implements the HTTP handlers of the lock API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/lockservice/core"
	"github.com/ebogdum/lockservice/locks"
	"github.com/ebogdum/lockservice/server/middleware"
)

const maxBodyBytes = 64 << 10

// AcquireLockRequest represents the request payload for acquiring a lock.
// user_id and user_name are accepted as aliases of owner_id and owner_name.
type AcquireLockRequest struct {
	Namespace  string `json:"namespace,omitempty" example:"default"`
	BusinessID string `json:"business_id" example:"order_001"`
	OwnerID    string `json:"owner_id" example:"user123"`
	OwnerName  string `json:"owner_name" example:"Alice"`
	UserID     string `json:"user_id,omitempty" swaggerignore:"true"`
	UserName   string `json:"user_name,omitempty" swaggerignore:"true"`
	Timeout    int64  `json:"timeout" example:"60"`
}

// AcquireLockResponse is returned when the caller holds the lock.
type AcquireLockResponse struct {
	LockID    string `json:"lock_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Reentrant bool   `json:"reentrant" example:"false"`
}

// LockHeldResponse is returned when another owner holds the lock.
type LockHeldResponse struct {
	Code            string     `json:"code" example:"LOCK_HELD"`
	Message         string     `json:"message" example:"Lock already held by Alice"`
	CurrentHolder   string     `json:"current_holder,omitempty" example:"Alice"`
	CurrentHolderID string     `json:"current_holder_id,omitempty" example:"user123"`
	LockedAt        *time.Time `json:"locked_at,omitempty" example:"2025-07-13T13:34:56Z"`
}

// LockIDRequest represents the heartbeat and release payloads.
type LockIDRequest struct {
	LockID string `json:"lock_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// HeartbeatResponse confirms a heartbeat.
type HeartbeatResponse struct {
	Updated bool `json:"updated" example:"true"`
}

// ReleaseResponse confirms a release.
type ReleaseResponse struct {
	Released bool `json:"released" example:"true"`
}

// LockStatusResponse describes a live lock.
type LockStatusResponse struct {
	LockID          string    `json:"lock_id"`
	Namespace       string    `json:"namespace"`
	BusinessID      string    `json:"business_id"`
	OwnerID         string    `json:"owner_id"`
	OwnerName       string    `json:"owner_name"`
	TimeoutSeconds  int64     `json:"timeout_seconds"`
	AcquiredAt      time.Time `json:"acquired_at"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", ErrInvalidRequest, err)
	}
	return nil
}

// V1AcquireLock creates an HTTP handler for acquiring a lock.
// @Summary Acquire a lock
// @Description Acquires the lock for namespace:business_id. Re-acquiring a lock already held by the same owner refreshes it and returns the existing lock id.
// @Tags lock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body AcquireLockRequest true "Lock acquisition request"
// @Success 200 {object} AcquireLockResponse "Lock acquired"
// @Failure 400 {object} ErrorResponse "Bad Request"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 409 {object} LockHeldResponse "Lock held by another owner"
// @Failure 500 {object} ErrorResponse "Backend Error"
// @Router /api/lock/acquire [post]
func V1AcquireLock(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AcquireLockRequest
		if err := decodeBody(w, r, &req); err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}
		if req.OwnerID == "" {
			req.OwnerID = req.UserID
		}
		if req.OwnerName == "" {
			req.OwnerName = req.UserName
		}

		result, err := engine.Acquire(r.Context(), core.AcquireRequest{
			Namespace:      req.Namespace,
			BusinessID:     req.BusinessID,
			OwnerID:        req.OwnerID,
			OwnerName:      req.OwnerName,
			TimeoutSeconds: req.Timeout,
		})
		if err != nil {
			var held *core.HeldError
			if errors.As(err, &held) {
				SendJSONResponseWithStatus(w, http.StatusConflict, lockHeldResponse(held))
				return
			}
			logger.Debug("Acquire failed",
				zap.String("request_id", middleware.GetRequestID(r.Context())),
				zap.Error(err))
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		SendJSONResponse(w, AcquireLockResponse{
			LockID:    result.LockID,
			Reentrant: result.Reentrant,
		})
	}
}

func lockHeldResponse(held *core.HeldError) LockHeldResponse {
	resp := LockHeldResponse{
		Code:    "LOCK_HELD",
		Message: "Lock acquisition failed",
	}
	if held.Holder != nil {
		lockedAt := held.Holder.AcquiredAt
		resp.Message = fmt.Sprintf("Lock already held by %s", held.Holder.OwnerName)
		resp.CurrentHolder = held.Holder.OwnerName
		resp.CurrentHolderID = held.Holder.OwnerID
		resp.LockedAt = &lockedAt
	}
	return resp
}

// V1Heartbeat creates an HTTP handler for lock heartbeats.
// @Summary Heartbeat a lock
// @Description Refreshes the expiry clock of the lock identified by lock_id
// @Tags lock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body LockIDRequest true "Heartbeat request"
// @Success 200 {object} HeartbeatResponse "Heartbeat recorded"
// @Failure 400 {object} ErrorResponse "Bad Request"
// @Failure 404 {object} ErrorResponse "Lock not found or expired"
// @Failure 500 {object} ErrorResponse "Backend Error"
// @Router /api/lock/heartbeat [post]
func V1Heartbeat(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LockIDRequest
		if err := decodeBody(w, r, &req); err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}

		if err := engine.Heartbeat(r.Context(), req.LockID); err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		SendJSONResponse(w, HeartbeatResponse{Updated: true})
	}
}

// V1ReleaseLock creates an HTTP handler for releasing a lock.
// @Summary Release a lock
// @Description Releases the lock identified by lock_id
// @Tags lock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body LockIDRequest true "Release request"
// @Success 200 {object} ReleaseResponse "Lock released"
// @Failure 400 {object} ErrorResponse "Bad Request"
// @Failure 404 {object} ErrorResponse "Lock not found or not owned"
// @Failure 500 {object} ErrorResponse "Backend Error"
// @Router /api/lock/release [post]
func V1ReleaseLock(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LockIDRequest
		if err := decodeBody(w, r, &req); err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}

		if err := engine.Release(r.Context(), req.LockID); err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		SendJSONResponse(w, ReleaseResponse{Released: true})
	}
}

// V1LockStatus creates an HTTP handler reporting the current holder of a lock.
// @Summary Lock status
// @Description Returns the live lock for namespace:business_id
// @Tags lock
// @Security BearerAuth
// @Produce json
// @Param namespace query string false "Namespace" default(default)
// @Param business_id query string true "Business id"
// @Success 200 {object} LockStatusResponse "Live lock"
// @Failure 400 {object} ErrorResponse "Bad Request"
// @Failure 404 {object} ErrorResponse "Lock not found or expired"
// @Failure 500 {object} ErrorResponse "Backend Error"
// @Router /api/lock/status [get]
func V1LockStatus(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		rec, err := engine.Status(r.Context(), query.Get("namespace"), query.Get("business_id"))
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		SendJSONResponse(w, statusResponse(rec))
	}
}

func statusResponse(rec *locks.LockRecord) LockStatusResponse {
	return LockStatusResponse{
		LockID:          rec.LockID,
		Namespace:       rec.Namespace,
		BusinessID:      rec.BusinessID,
		OwnerID:         rec.OwnerID,
		OwnerName:       rec.OwnerName,
		TimeoutSeconds:  rec.TimeoutSeconds,
		AcquiredAt:      rec.AcquiredAt,
		LastHeartbeatAt: rec.LastHeartbeatAt,
		ExpiresAt:       rec.LastHeartbeatAt.Add(rec.TTL()),
	}
}
