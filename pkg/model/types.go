package model

import internalmodel "github.com/goliatone/go-contactform/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeText     = internalmodel.FieldTypeText
	FieldTypeEmail    = internalmodel.FieldTypeEmail
	FieldTypeTextarea = internalmodel.FieldTypeTextarea
)

const (
	ValidationRuleRequired  = internalmodel.ValidationRuleRequired
	ValidationRuleMinLength = internalmodel.ValidationRuleMinLength
	ValidationRuleFormat    = internalmodel.ValidationRuleFormat
)

type ValidationRule = internalmodel.ValidationRule
type Field = internalmodel.Field
type FormModel = internalmodel.FormModel
