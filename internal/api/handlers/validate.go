package handlers

import "github.com/go-playground/validator/v10"

// validate is shared by every handler; validator instances cache struct
// metadata and are safe for concurrent use.
var validate = validator.New()
