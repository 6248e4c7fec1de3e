package parser

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"solarops/internal/domain"
)

// MergeFields combines pattern results with alternate results. Every field
// populated in local is kept; only unpopulated fields are taken from alt.
// signature_found=false counts as unpopulated.
func MergeFields(local, alt domain.FieldSet) domain.FieldSet {
	merged := local.Clone()
	if merged.CustomerName == "" {
		merged.CustomerName = alt.CustomerName
	}
	if merged.CustomerAddress == "" {
		merged.CustomerAddress = alt.CustomerAddress
	}
	if merged.UtilityAccountNumber == "" {
		merged.UtilityAccountNumber = alt.UtilityAccountNumber
	}
	if merged.SystemCapacityKW == "" {
		merged.SystemCapacityKW = alt.SystemCapacityKW
	}
	if len(merged.PanelSerialNumbers) == 0 && len(alt.PanelSerialNumbers) > 0 {
		merged.PanelSerialNumbers = append([]string(nil), alt.PanelSerialNumbers...)
	}
	if merged.InverterSerialNumber == "" {
		merged.InverterSerialNumber = alt.InverterSerialNumber
	}
	if merged.InstallDate == "" {
		merged.InstallDate = alt.InstallDate
	}
	if merged.RebateAmount == "" {
		merged.RebateAmount = alt.RebateAmount
	}
	if !merged.SignatureFound {
		merged.SignatureFound = alt.SignatureFound
	}
	return merged
}

// MergeExtractor runs two providers in parallel; the primary wins and the
// secondary fills its gaps.
type MergeExtractor struct {
	primary   Provider
	secondary Provider
}

// NewMergeExtractor creates a MergeExtractor from primary and secondary providers.
func NewMergeExtractor(primary, secondary Provider) *MergeExtractor {
	return &MergeExtractor{primary: primary, secondary: secondary}
}

func (m *MergeExtractor) ExtractFields(ctx context.Context, text string) (*domain.FieldSet, error) {
	type result struct {
		fields *domain.FieldSet
		err    error
	}

	var wg sync.WaitGroup
	var pResult, sResult result

	wg.Add(2)
	go func() {
		defer wg.Done()
		pResult.fields, pResult.err = m.primary.ExtractFields(ctx, text)
	}()
	go func() {
		defer wg.Done()
		sResult.fields, sResult.err = m.secondary.ExtractFields(ctx, text)
	}()
	wg.Wait()

	switch {
	case pResult.err != nil && sResult.err != nil:
		zap.L().Warn("parser.MergeExtractor: both providers failed", zap.NamedError("secondary", sResult.err))
		return nil, pResult.err
	case pResult.err != nil:
		zap.L().Info("parser.MergeExtractor: primary failed, using secondary only", zap.Error(pResult.err))
		return sResult.fields, nil
	case sResult.err != nil:
		zap.L().Info("parser.MergeExtractor: secondary failed, using primary only", zap.Error(sResult.err))
		return pResult.fields, nil
	}

	merged := MergeFields(*pResult.fields, *sResult.fields)
	return &merged, nil
}

// Complete uses the primary provider and falls back to the secondary.
func (m *MergeExtractor) Complete(ctx context.Context, system, prompt string) (string, error) {
	out, err := m.primary.Complete(ctx, system, prompt)
	if err == nil {
		return out, nil
	}
	zap.L().Info("parser.MergeExtractor: primary completion failed, trying secondary", zap.Error(err))
	return m.secondary.Complete(ctx, system, prompt)
}
