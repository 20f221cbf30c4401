package pipeline

import (
	"context"

	"github.com/stablemark/stablemark/pkg/constants"
	"github.com/stablemark/stablemark/pkg/identity"
	"github.com/stablemark/stablemark/pkg/ledger"
	"github.com/stablemark/stablemark/pkg/logging"
	"github.com/stablemark/stablemark/pkg/policy"
	pkgsync "github.com/stablemark/stablemark/pkg/sync"
)

// Harvest seeds the ledger from the baseline snapshot of every listed
// policy in the selected categories. Policies already in the ledger only
// gain the rows they are missing, so re-running is safe.
func (p *Pipeline) Harvest(ctx context.Context, opts *pkgsync.Options) (*pkgsync.Result, error) {
	result := pkgsync.NewResult(opts.DryRun, opts.Override)
	tracker := newResults()

	logging.Info().Str("run", result.RunID).Bool("dry_run", opts.DryRun).Msg("harvest started")

	// Step 1: one listing pass serves both categories.
	listing, err := p.catalog.ListPolicies(ctx)
	if err != nil {
		return result, err
	}

	// Step 2: walk each selected category against its own ledger.
	for _, category := range opts.SelectedCategories() {
		switch category {
		case policy.CategoryQuality:
			err = p.harvestQuality(ctx, listing, tracker, opts)
		case policy.CategoryReconciliation:
			err = p.harvestRecon(ctx, listing, tracker, opts)
		}
		if err != nil {
			break
		}
	}

	// Step 3: fold per-policy outcomes into the run result.
	tracker.record(result)
	logging.Info().Str("run", result.RunID).Msg(result.Summary())
	return result, err
}

// harvestQuality records a check row for every item in the baseline
// snapshot of each listed data-quality policy.
func (p *Pipeline) harvestQuality(ctx context.Context, listing *policy.Policies, tracker *results, opts *pkgsync.Options) error {
	checks, err := p.store.LoadChecks()
	if err != nil {
		return err
	}

	for _, summary := range listing.ListByCategory(policy.CategoryQuality) {
		detail, err := p.catalog.GetQualityDetail(ctx, summary.ID, constants.BaselineVersion)
		if err != nil {
			pr := tracker.get(summary.ID, summary.Name, policy.CategoryQuality)
			pr.Err = err
			logging.Warn().Err(err).Int64("policy", summary.ID).Msg("baseline fetch failed, skipping policy")
			if opts.FailFast {
				return err
			}
			continue
		}

		name := summary.Name
		if detail.Rule.Name != "" {
			name = detail.Rule.Name
		}
		pr := tracker.get(summary.ID, name, policy.CategoryQuality)

		items := detail.Details.Items
		if len(items) == 0 {
			// A placeholder row keeps the policy ledger-known even though
			// its baseline has nothing to label.
			checks.AppendIfAbsent(ledger.CheckRow{PolicyID: summary.ID, PolicyName: name})
			continue
		}

		for i := range items {
			row := ledger.CheckRow{
				PolicyID:       summary.ID,
				PolicyName:     name,
				CheckID:        items[i].ID,
				CheckKind:      items[i].MeasurementType,
				ColumnIdentity: identity.KeyForCheck(&items[i]),
			}
			if checks.AppendIfAbsent(row) {
				pr.NewChecks = append(pr.NewChecks, row.Key())
			}
		}
	}

	return p.persistChecks(checks, opts)
}

// harvestRecon records a mapping row for every column-mapping in the
// baseline snapshot of each listed reconciliation policy. Mappings with a
// missing column are recorded too; the label maps filter them out later.
func (p *Pipeline) harvestRecon(ctx context.Context, listing *policy.Policies, tracker *results, opts *pkgsync.Options) error {
	mappings, err := p.store.LoadMappings()
	if err != nil {
		return err
	}

	for _, summary := range listing.ListByCategory(policy.CategoryReconciliation) {
		detail, err := p.catalog.GetReconDetail(ctx, summary.ID, constants.BaselineVersion)
		if err != nil {
			pr := tracker.get(summary.ID, summary.Name, policy.CategoryReconciliation)
			pr.Err = err
			logging.Warn().Err(err).Int64("policy", summary.ID).Msg("baseline fetch failed, skipping policy")
			if opts.FailFast {
				return err
			}
			continue
		}

		name := summary.Name
		if detail.Rule.Name != "" {
			name = detail.Rule.Name
		}
		pr := tracker.get(summary.ID, name, policy.CategoryReconciliation)

		kind := detail.Details.ReconKind()
		columnMappings := detail.Details.ColumnMappings
		if len(columnMappings) == 0 {
			mappings.AppendIfAbsent(ledger.MappingRow{PolicyID: summary.ID, PolicyName: name, ReconKind: kind})
			continue
		}

		for i := range columnMappings {
			row := ledger.MappingRow{
				PolicyID:    summary.ID,
				PolicyName:  name,
				MappingID:   columnMappings[i].ID,
				ReconKind:   kind,
				LeftColumn:  columnMappings[i].LeftColumnName,
				RightColumn: columnMappings[i].RightColumnName,
			}
			if mappings.AppendIfAbsent(row) {
				pr.NewMappings = append(pr.NewMappings, row.Key())
			}
		}
	}

	return p.persistMappings(mappings, opts)
}

// persistChecks writes the check ledger back to disk when rows were
// appended this run. Dry runs leave the file untouched.
func (p *Pipeline) persistChecks(checks *ledger.Checks, opts *pkgsync.Options) error {
	if !checks.Dirty() {
		return nil
	}
	if opts.DryRun {
		logging.Info().Int("rows", checks.Appended()).Msg("dry run, leaving check ledger untouched")
		return nil
	}

	appended := checks.Appended()
	if err := p.store.SaveChecks(checks); err != nil {
		return err
	}
	logging.Info().Int("rows", appended).Str("path", p.store.ChecksPath()).Msg("check ledger written")
	return nil
}

// persistMappings is the mapping-ledger counterpart of persistChecks.
func (p *Pipeline) persistMappings(mappings *ledger.Mappings, opts *pkgsync.Options) error {
	if !mappings.Dirty() {
		return nil
	}
	if opts.DryRun {
		logging.Info().Int("rows", mappings.Appended()).Msg("dry run, leaving mapping ledger untouched")
		return nil
	}

	appended := mappings.Appended()
	if err := p.store.SaveMappings(mappings); err != nil {
		return err
	}
	logging.Info().Int("rows", appended).Str("path", p.store.MappingsPath()).Msg("mapping ledger written")
	return nil
}
