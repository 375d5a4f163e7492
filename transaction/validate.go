package transaction

import (
	"fmt"
)

// Validate runs per-kind validation and returns a *ValidationError
// accumulating every problem found, or nil if the transaction is well
// formed.
func (t *Transaction) Validate() error {
	var errs []error
	errs = append(errs, t.Header.validateCommon()...)

	switch t.Kind {
	case KindAppCall:
		errs = append(errs, t.AppCall.validate(t.Header)...)
	case KindAssetConfig:
		errs = append(errs, t.AssetConfig.validate()...)
	case KindPayment, KindAssetTransfer, KindAssetFreeze, KindKeyRegistration:
		// No kind-specific structural invariants beyond the common header
		// checks and the field constructors' own required-field handling.
	default:
		errs = append(errs, fmt.Errorf("unknown transaction kind %q", t.Kind))
	}

	return newValidationError(t.Kind, errs)
}

func (f *AssetConfigFields) validate() []error {
	if f == nil {
		return nil
	}
	var errs []error
	if f.AssetID == 0 {
		// Creation.
		if f.Params == nil {
			errs = append(errs, fmt.Errorf("asset creation requires params"))
			return errs
		}
		if len(f.Params.UnitName) > 8 {
			errs = append(errs, fmt.Errorf("unit name %q exceeds 8 bytes", f.Params.UnitName))
		}
		if len(f.Params.AssetName) > 32 {
			errs = append(errs, fmt.Errorf("asset name %q exceeds 32 bytes", f.Params.AssetName))
		}
		if len(f.Params.URL) > 96 {
			errs = append(errs, fmt.Errorf("asset url exceeds 96 bytes"))
		}
	}
	return errs
}

// validate implements a dispatch table: behavior depends on
// (app_id, on_completion).
func (f *AppCallFields) validate(h Header) []error {
	if f == nil {
		return nil
	}
	var errs []error

	isCreate := f.AppID == 0
	immutableFieldsSet := f.GlobalStateSchema != nil || f.LocalStateSchema != nil || f.ExtraProgramPages != nil

	switch {
	case isCreate:
		if len(f.ApprovalProgram) == 0 {
			errs = append(errs, fmt.Errorf("app create requires a non-empty approval program"))
		}
		if len(f.ClearStateProgram) == 0 {
			errs = append(errs, fmt.Errorf("app create requires a non-empty clear state program"))
		}
		pages := uint32(0)
		if f.ExtraProgramPages != nil {
			pages = *f.ExtraProgramPages
			if pages > MaxExtraProgramPages {
				errs = append(errs, fmt.Errorf("extra program pages %d exceeds max %d", pages, MaxExtraProgramPages))
			}
		}
		maxProgramSize := ProgramPageSize * (1 + int(pages))
		if len(f.ApprovalProgram) > maxProgramSize {
			errs = append(errs, fmt.Errorf("approval program size %d exceeds max %d", len(f.ApprovalProgram), maxProgramSize))
		}
		if len(f.ClearStateProgram) > maxProgramSize {
			errs = append(errs, fmt.Errorf("clear state program size %d exceeds max %d", len(f.ClearStateProgram), maxProgramSize))
		}
		if len(f.ApprovalProgram)+len(f.ClearStateProgram) > maxProgramSize {
			errs = append(errs, fmt.Errorf("combined program size exceeds max %d", maxProgramSize))
		}
		if f.GlobalStateSchema != nil && f.GlobalStateSchema.total() > MaxGlobalSchemaEntries {
			errs = append(errs, fmt.Errorf("global state schema entries %d exceeds max %d", f.GlobalStateSchema.total(), MaxGlobalSchemaEntries))
		}
		if f.LocalStateSchema != nil && f.LocalStateSchema.total() > MaxLocalSchemaEntries {
			errs = append(errs, fmt.Errorf("local state schema entries %d exceeds max %d", f.LocalStateSchema.total(), MaxLocalSchemaEntries))
		}

	case f.OnCompletion == UpdateApplication:
		if f.AppID == 0 {
			errs = append(errs, fmt.Errorf("update requires a non-zero app id"))
		}
		if len(f.ApprovalProgram) == 0 || len(f.ClearStateProgram) == 0 {
			errs = append(errs, fmt.Errorf("update requires both programs"))
		}
		if immutableFieldsSet {
			errs = append(errs, fmt.Errorf("update must not set global/local state schema or extra program pages"))
		}

	case f.OnCompletion == DeleteApplication:
		if f.AppID == 0 {
			errs = append(errs, fmt.Errorf("delete requires a non-zero app id"))
		}
		if immutableFieldsSet {
			errs = append(errs, fmt.Errorf("delete must not set global/local state schema or extra program pages"))
		}

	default:
		// call / opt-in / close-out / clear-state
		if f.AppID == 0 {
			errs = append(errs, fmt.Errorf("app call requires a non-zero app id"))
		}
		if immutableFieldsSet {
			errs = append(errs, fmt.Errorf("call must not set global/local state schema or extra program pages"))
		}
	}

	errs = append(errs, f.validateCommonLimits()...)
	return errs
}

func (f *AppCallFields) validateCommonLimits() []error {
	var errs []error

	if len(f.Args) > MaxAppArgs {
		errs = append(errs, fmt.Errorf("app args count %d exceeds max %d", len(f.Args), MaxAppArgs))
	}
	argsSize := 0
	for _, a := range f.Args {
		argsSize += len(a)
	}
	if argsSize > MaxArgsSize {
		errs = append(errs, fmt.Errorf("total app args size %d exceeds max %d", argsSize, MaxArgsSize))
	}

	if len(f.AccountReferences) > MaxAccountReferences {
		errs = append(errs, fmt.Errorf("account references %d exceeds max %d", len(f.AccountReferences), MaxAccountReferences))
	}
	overall := len(f.AccountReferences) + len(f.AppReferences) + len(f.AssetReferences) + len(f.BoxReferences)
	if overall > MaxOverallReferences {
		errs = append(errs, fmt.Errorf("overall reference count %d exceeds max %d", overall, MaxOverallReferences))
	}

	for _, box := range f.BoxReferences {
		if box.AppID == 0 || box.AppID == f.AppID {
			continue
		}
		found := false
		for _, a := range f.AppReferences {
			if a == box.AppID {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Errorf("Box reference with app id %d not found in app references", box.AppID))
		}
	}

	return errs
}
