package models

import (
	"market-tax-sim/internal/analysis"
	"market-tax-sim/internal/model"
)

// SessionResponse is the state of a session after creation or an update
type SessionResponse struct {
	ID          string                 `json:"id"`
	Solver      string                 `json:"solver"`
	Parameters  model.MarketParameters `json:"parameters"`
	Intercepts  Intercepts             `json:"intercepts"`
	Equilibrium model.Equilibrium      `json:"equilibrium"`
	Welfare     model.WelfareSnapshot  `json:"welfare"`
}

// Intercepts are the derived price-axis intercepts of both curves
type Intercepts struct {
	Demand float64 `json:"demand"`
	Supply float64 `json:"supply"`
}

// ShockResponse reports which side moved and the new state
type ShockResponse struct {
	Side             model.Side `json:"side"`
	BaseFactor       float64    `json:"base_factor"`
	ElasticityFactor float64    `json:"elasticity_factor"`
	SessionResponse
}

// HistoryResponse is the session's append-only log
type HistoryResponse struct {
	History []model.HistoryEntry `json:"history"`
}

// CurvesResponse holds plot samples
type CurvesResponse struct {
	Samples []model.CurveSample `json:"samples"`
}

// SweepResponse holds sweep points ranked by tax revenue
type SweepResponse struct {
	RevenueMaximizingRate float64               `json:"revenue_maximizing_rate"`
	Points                []analysis.SweepPoint `json:"points"`
}

// SolverInfo represents information about an equilibrium solver
type SolverInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a solver parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// MarketInfo represents a market preset on disk
type MarketInfo struct {
	ID     string                 `json:"id"`
	Name   string                 `json:"name"`
	File   string                 `json:"file"`
	Market model.MarketParameters `json:"market"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
