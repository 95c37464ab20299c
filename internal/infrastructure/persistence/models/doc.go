// Package models contains GORM persistence models for the certificate tables.
// Domain types stay free of ORM tags; each model converts to and from its
// domain counterpart.
package models
