// Package storage provides persistence backends for rotation schedules.
package storage
