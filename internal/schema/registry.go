package schema

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"draftly/internal/domain/models/workspace"
)

// DefaultLineItemColumns is the column order displayed when a line_items
// block does not declare its own.
var DefaultLineItemColumns = []string{
	"description", "quantity", "unit", "unit_price", "tax_rate", "total",
}

// DefaultCurrency is used when a line_items block omits its currency code.
const DefaultCurrency = "EUR"

var currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

// lineItemNumericFields are coerced to numbers at normalization time.
var lineItemNumericFields = []string{"quantity", "unit_price", "tax_rate", "total"}

// Validate checks an untrusted block payload against the shape declared by
// blockType. On success it returns the normalized payload (defaults filled,
// numerics coerced). On shape failure it returns the field errors. An
// unrecognized blockType returns ErrUnknownType instead, so callers can
// distinguish "we do not know this block" from "we know it and it is broken".
//
// payload is the flat block object including the common id/type/label keys.
func Validate(blockType string, payload map[string]any) (map[string]any, []FieldError, error) {
	if !workspace.IsKnownBlockType(blockType) {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownType, blockType)
	}
	if payload == nil {
		payload = map[string]any{}
	}

	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	out["type"] = blockType

	var errs []FieldError
	errs = append(errs, validateCommon(out)...)

	switch blockType {
	case workspace.BlockTypeRichText, workspace.BlockTypeClause, workspace.BlockTypeTerms:
		errs = append(errs, normalizeRichText(out)...)
	case workspace.BlockTypeLineItems:
		errs = append(errs, normalizeLineItems(out)...)
	case workspace.BlockTypeSignature:
		errs = append(errs, normalizeSignature(out)...)
	case workspace.BlockTypeVariables:
		errs = append(errs, normalizeVariables(out)...)
	case workspace.BlockTypeAttachments:
		errs = append(errs, normalizeAttachments(out)...)
	}

	if len(errs) > 0 {
		return nil, errs, nil
	}
	return out, nil, nil
}

// ValidateBlock is the Block-typed convenience over Validate.
func ValidateBlock(b workspace.Block) (map[string]any, []FieldError, error) {
	return Validate(b.Type, b.Raw())
}

// validateCommon checks the fields shared by every block type.
func validateCommon(payload map[string]any) []FieldError {
	var errs []FieldError

	id, _ := payload["id"].(string)
	if err := validation.Validate(id, validation.Required.Error("is required")); err != nil {
		errs = append(errs, fieldErrorf("id", "%v", err))
	}

	if raw, ok := payload["label"]; ok {
		if _, isStr := raw.(string); !isStr {
			errs = append(errs, fieldErrorf("label", "must be a string"))
		}
	}
	return errs
}

// normalizeRichText covers rich_text, clause and terms blocks: content is a
// serialized rich-text tree (a JSON object), opaque beyond its shape.
func normalizeRichText(payload map[string]any) []FieldError {
	raw, ok := payload["content"]
	if !ok || raw == nil {
		payload["content"] = map[string]any{}
		return nil
	}
	if _, isMap := raw.(map[string]any); !isMap {
		return []FieldError{fieldErrorf("content", "must be a rich text tree object")}
	}
	return nil
}

func normalizeLineItems(payload map[string]any) []FieldError {
	var errs []FieldError

	// currency: optional, three-letter code, normalized upper-case
	currency := DefaultCurrency
	if raw, ok := payload["currency"]; ok && raw != nil {
		s, isStr := raw.(string)
		if !isStr {
			errs = append(errs, fieldErrorf("currency", "must be a string"))
		} else if err := validation.Validate(s,
			validation.Required.Error("is required"),
			validation.Match(currencyPattern).Error("must be a three-letter code"),
		); err != nil {
			errs = append(errs, fieldErrorf("currency", "%v", err))
		} else {
			currency = s
		}
	}
	payload["currency"] = currency

	// columns: optional, ordered list of column keys
	columns := DefaultLineItemColumns
	if raw, ok := payload["columns"]; ok && raw != nil {
		list, isList := raw.([]any)
		if !isList {
			errs = append(errs, fieldErrorf("columns", "must be a list of column keys"))
		} else {
			cols := make([]string, 0, len(list))
			for i, c := range list {
				s, isStr := c.(string)
				if !isStr {
					errs = append(errs, fieldErrorf(fmt.Sprintf("columns.%d", i), "must be a string"))
					continue
				}
				cols = append(cols, s)
			}
			columns = cols
		}
	}
	colsAny := make([]any, len(columns))
	for i, c := range columns {
		colsAny[i] = c
	}
	payload["columns"] = colsAny

	// items: optional, ordered list of item objects with coerced numerics
	items := []any{}
	if raw, ok := payload["items"]; ok && raw != nil {
		list, isList := raw.([]any)
		if !isList {
			errs = append(errs, fieldErrorf("items", "must be a list of line items"))
		} else {
			for i, entry := range list {
				item, isMap := entry.(map[string]any)
				if !isMap {
					errs = append(errs, fieldErrorf(fmt.Sprintf("items.%d", i), "must be an object"))
					continue
				}
				items = append(items, normalizeLineItem(item))
			}
		}
	}
	payload["items"] = items

	return errs
}

// normalizeLineItem fills item defaults and coerces the numeric fields.
// Items without an id get a fresh one; ids are what lets targeted patches
// address individual lines.
func normalizeLineItem(item map[string]any) map[string]any {
	out := make(map[string]any, len(item)+2)
	for k, v := range item {
		out[k] = v
	}
	if id, _ := out["id"].(string); id == "" {
		out["id"] = uuid.NewString()
	}
	out["description"] = CoerceString(item["description"])
	out["unit"] = CoerceString(item["unit"])
	for _, f := range lineItemNumericFields {
		out[f] = CoerceNumber(item[f])
	}
	return out
}

func normalizeSignature(payload map[string]any) []FieldError {
	var errs []FieldError

	parties := []any{}
	if raw, ok := payload["parties"]; ok && raw != nil {
		list, isList := raw.([]any)
		if !isList {
			errs = append(errs, fieldErrorf("parties", "must be a list of parties"))
		} else {
			for i, entry := range list {
				party, isMap := entry.(map[string]any)
				if !isMap {
					errs = append(errs, fieldErrorf(fmt.Sprintf("parties.%d", i), "must be an object"))
					continue
				}
				out := make(map[string]any, len(party))
				for k, v := range party {
					out[k] = v
				}
				out["name"] = CoerceString(party["name"])
				out["role"] = CoerceString(party["role"])
				if _, ok := party["date"]; ok {
					out["date"] = CoerceString(party["date"])
				}
				parties = append(parties, out)
			}
		}
	}
	payload["parties"] = parties
	return errs
}

func normalizeVariables(payload map[string]any) []FieldError {
	raw, ok := payload["variables"]
	if !ok || raw == nil {
		payload["variables"] = map[string]any{}
		return nil
	}
	if _, isMap := raw.(map[string]any); !isMap {
		return []FieldError{fieldErrorf("variables", "must be a mapping of name to value")}
	}
	return nil
}

func normalizeAttachments(payload map[string]any) []FieldError {
	raw, ok := payload["files"]
	if !ok || raw == nil {
		payload["files"] = []any{}
		return nil
	}
	if _, isList := raw.([]any); !isList {
		return []FieldError{fieldErrorf("files", "must be a list")}
	}
	return nil
}
