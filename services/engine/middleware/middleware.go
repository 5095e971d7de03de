// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the engine service.
//
// The browser frontend is served from a different origin during
// development, so the engine answers CORS preflight itself instead of
// sitting behind a proxy. Every request also gets a request ID for
// log correlation.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header names used by the engine.
const (
	// RequestIDHeader carries the per-request correlation ID.
	RequestIDHeader = "X-Request-ID"

	// SessionIDHeader selects the game session a request operates on.
	SessionIDHeader = "X-Session-ID"
)

// contextKeyRequestID is the gin context key for the request ID.
const contextKeyRequestID = "request_id"

// CORS allows the frontend origin to call the engine directly.
//
// Origins are not restricted: the engine holds no credentials or user
// data beyond an anonymous puzzle, matching the original deployment.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader+", "+SessionIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestID ensures every request carries a correlation ID, taking the
// client's if present and minting a UUID otherwise. The ID is echoed in
// the response and stored in the gin context for handlers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(contextKeyRequestID, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the request's correlation ID, or "" if the
// RequestID middleware did not run.
func GetRequestID(c *gin.Context) string {
	if id, ok := c.Get(contextKeyRequestID); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// SessionID returns the game session a request addresses, falling back
// to the shared default session when the header is absent.
func SessionID(c *gin.Context, fallback string) string {
	if id := c.GetHeader(SessionIDHeader); id != "" {
		return id
	}
	return fallback
}
