package main

// @title Stock Ledger Service API
// @version 1.0
// @description Inventory stock ledger and idempotent fulfillment-deduction engine

// @host localhost:8084
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Stock
// @tag.description Stock ledger endpoints

// @tag.name Health
// @tag.description Health check endpoints
