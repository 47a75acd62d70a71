package session

import _ "embed"

// Schema e' il DDL della tabella usata da PGStorage.
//
//go:embed schema.sql
var Schema string
