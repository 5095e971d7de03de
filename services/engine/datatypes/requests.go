// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// AssignRequest is the request body for POST /assign.
//
// Row and Col are pointers so that binding can distinguish a missing
// field from a legitimate zero coordinate.
type AssignRequest struct {
	// Row is the zero-based row index. Required.
	Row *int `json:"row" binding:"required,gte=0,lte=8"`

	// Col is the zero-based column index. Required.
	Col *int `json:"col" binding:"required,gte=0,lte=8"`

	// Candidates is the digit set the user selected for the cell.
	// A single digit collapses the cell; several keep it in a
	// restricted superposition. Required, at least one digit, each in 1-9.
	Candidates []int `json:"candidates" binding:"required,min=1,dive,gte=1,lte=9"`
}

// AssignResponse is the success response for POST /assign.
type AssignResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Board   *Board `json:"board"`
}

// ResetResponse is the response for POST /reset.
type ResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the failure envelope for all engine endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
}
