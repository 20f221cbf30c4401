package pipeline

import (
	"context"
	"sync"

	"github.com/stablemark/stablemark/internal/catalog"
	"github.com/stablemark/stablemark/pkg/constants"
	"github.com/stablemark/stablemark/pkg/identity"
	"github.com/stablemark/stablemark/pkg/ledger"
	"github.com/stablemark/stablemark/pkg/logging"
	"github.com/stablemark/stablemark/pkg/policy"
	"github.com/stablemark/stablemark/pkg/reconcile"
	pkgsync "github.com/stablemark/stablemark/pkg/sync"
)

// Sync diffs every upgraded policy against its baseline, appends the newly
// discovered rows to the ledger, and reapplies durable labels to the live
// definitions. Only policies the ledger already knows are considered; run
// Harvest first to seed it.
func (p *Pipeline) Sync(ctx context.Context, opts *pkgsync.Options) (*pkgsync.Result, error) {
	result := pkgsync.NewResult(opts.DryRun, opts.Override)
	tracker := newResults()

	logging.Info().Str("run", result.RunID).
		Bool("dry_run", opts.DryRun).
		Bool("override", opts.Override).
		Msg("sync started")

	// Step 1: one listing pass serves both categories.
	listing, err := p.catalog.ListPolicies(ctx)
	if err != nil {
		return result, err
	}

	// Step 2: per category, diff upgraded policies and relabel live
	// definitions from the ledger.
	for _, category := range opts.SelectedCategories() {
		switch category {
		case policy.CategoryQuality:
			err = p.syncQuality(ctx, listing, tracker, opts)
		case policy.CategoryReconciliation:
			err = p.syncRecon(ctx, listing, tracker, opts)
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

// syncQuality runs the diff and label stages for data-quality policies.
func (p *Pipeline) syncQuality(ctx context.Context, listing *policy.Policies, tracker *results, opts *pkgsync.Options) error {
	checks, err := p.store.LoadChecks()
	if err != nil {
		return err
	}

	// Diff stage: ledger-known policies that moved past the baseline
	// version since the last run.
	for _, id := range checks.PolicyIDs() {
		summary, ok := listing.Get(id)
		if !ok || summary.Category != policy.CategoryQuality || summary.Version <= constants.BaselineVersion {
			continue
		}

		pr := tracker.get(id, summary.Name, policy.CategoryQuality)
		baseline, latest, err := p.qualityPair(ctx, id, summary.Version)
		if err != nil {
			pr.Err = err
			logging.Warn().Err(err).Int64("policy", id).Msg("snapshot pair fetch failed, skipping diff")
			if opts.FailFast {
				return err
			}
			continue
		}

		name := summary.Name
		if latest.Rule.Name != "" {
			name = latest.Rule.Name
			pr.Name = name
		}

		changes := p.differ.Checks(baseline.Details.Items, latest.Details.Items)
		logging.Debug().Int64("policy", id).Int("new", len(changes.Added)).Msg("diffed quality versions")
		for i := range changes.Added {
			item := &changes.Added[i]
			row := ledger.CheckRow{
				PolicyID:       id,
				PolicyName:     name,
				CheckID:        item.ID,
				CheckKind:      item.MeasurementType,
				ColumnIdentity: identity.KeyForCheck(item),
			}
			if checks.AppendIfAbsent(row) {
				pr.NewChecks = append(pr.NewChecks, row.Key())
			}
		}
	}

	if err := p.persistChecks(checks, opts); err != nil {
		return err
	}

	// Label stage: every ledger-known policy with at least one labeled row.
	for _, id := range checks.PolicyIDs() {
		ledgerMap := checks.LabelMap(id)
		if len(ledgerMap) == 0 {
			continue
		}
		if err := p.labelQuality(ctx, id, ledgerMap, listing, tracker, opts); err != nil {
			return err
		}
	}
	return nil
}

// syncRecon runs the diff and label stages for reconciliation policies.
func (p *Pipeline) syncRecon(ctx context.Context, listing *policy.Policies, tracker *results, opts *pkgsync.Options) error {
	mappings, err := p.store.LoadMappings()
	if err != nil {
		return err
	}

	for _, id := range mappings.PolicyIDs() {
		summary, ok := listing.Get(id)
		if !ok || summary.Category != policy.CategoryReconciliation || summary.Version <= constants.BaselineVersion {
			continue
		}

		pr := tracker.get(id, summary.Name, policy.CategoryReconciliation)
		baseline, latest, err := p.reconPair(ctx, id, summary.Version)
		if err != nil {
			pr.Err = err
			logging.Warn().Err(err).Int64("policy", id).Msg("snapshot pair fetch failed, skipping diff")
			if opts.FailFast {
				return err
			}
			continue
		}

		name := summary.Name
		if latest.Rule.Name != "" {
			name = latest.Rule.Name
			pr.Name = name
		}

		kind := latest.Details.ReconKind()
		if kind == "" {
			kind = constants.DefaultReconKind
		}

		changes := p.differ.Mappings(baseline.Details.ColumnMappings, latest.Details.ColumnMappings)
		logging.Debug().Int64("policy", id).Int("new", len(changes.Added)).Msg("diffed reconciliation versions")
		for i := range changes.Added {
			m := &changes.Added[i]
			row := ledger.MappingRow{
				PolicyID:    id,
				PolicyName:  name,
				MappingID:   m.ID,
				ReconKind:   kind,
				LeftColumn:  m.LeftColumnName,
				RightColumn: m.RightColumnName,
			}
			if mappings.AppendIfAbsent(row) {
				pr.NewMappings = append(pr.NewMappings, row.Key())
			}
		}
	}

	if err := p.persistMappings(mappings, opts); err != nil {
		return err
	}

	for _, id := range mappings.PolicyIDs() {
		ledgerMap := mappings.LabelMap(id)
		if len(ledgerMap) == 0 {
			continue
		}
		if err := p.labelRecon(ctx, id, ledgerMap, listing, tracker, opts); err != nil {
			return err
		}
	}
	return nil
}

// labelQuality reconciles one quality policy's live labels against its
// ledger map and writes the definition back when labels were added. Write
// failures leave the run totals untouched for this policy.
func (p *Pipeline) labelQuality(ctx context.Context, id int64, ledgerMap map[string]int64, listing *policy.Policies, tracker *results, opts *pkgsync.Options) error {
	name := ""
	if summary, ok := listing.Get(id); ok {
		name = summary.Name
	}
	pr := tracker.get(id, name, policy.CategoryQuality)

	detail, err := p.catalog.GetQualityDetail(ctx, id, catalog.LatestVersion)
	if err != nil {
		pr.Err = err
		logging.Warn().Err(err).Int64("policy", id).Msg("latest fetch failed, skipping labels")
		if opts.FailFast {
			return err
		}
		return nil
	}
	if detail.Rule.Name != "" {
		pr.Name = detail.Rule.Name
	}

	outcome := reconcile.Checks(detail, ledgerMap, opts.Override)
	pr.LabelsSkipped = append(pr.LabelsSkipped, outcome.Skipped...)
	if !outcome.NeedsWrite() {
		return nil
	}

	if opts.DryRun {
		pr.LabelsAdded = append(pr.LabelsAdded, outcome.Added...)
		pr.LabelsRemoved = append(pr.LabelsRemoved, outcome.Removed...)
		logging.Info().Int64("policy", id).Str("labels", outcome.Summary()).Msg("dry run, skipping write-back")
		return nil
	}

	if err := p.catalog.PutQualityDetail(ctx, id, detail); err != nil {
		pr.Err = err
		logging.Warn().Err(err).Int64("policy", id).Msg("label write-back failed")
		if opts.FailFast {
			return err
		}
		return nil
	}

	pr.LabelsAdded = append(pr.LabelsAdded, outcome.Added...)
	pr.LabelsRemoved = append(pr.LabelsRemoved, outcome.Removed...)
	pr.Written = true
	logging.Info().Int64("policy", id).Str("labels", outcome.Summary()).Msg("labels written back")
	return nil
}

// labelRecon is the reconciliation counterpart of labelQuality. Matching
// is by left_right column key, so remote mapping id churn is harmless.
func (p *Pipeline) labelRecon(ctx context.Context, id int64, ledgerMap map[string]int64, listing *policy.Policies, tracker *results, opts *pkgsync.Options) error {
	name := ""
	if summary, ok := listing.Get(id); ok {
		name = summary.Name
	}
	pr := tracker.get(id, name, policy.CategoryReconciliation)

	detail, err := p.catalog.GetReconDetail(ctx, id, catalog.LatestVersion)
	if err != nil {
		pr.Err = err
		logging.Warn().Err(err).Int64("policy", id).Msg("latest fetch failed, skipping labels")
		if opts.FailFast {
			return err
		}
		return nil
	}
	if detail.Rule.Name != "" {
		pr.Name = detail.Rule.Name
	}

	outcome := reconcile.Mappings(detail, ledgerMap, opts.Override)
	pr.LabelsSkipped = append(pr.LabelsSkipped, outcome.Skipped...)
	if !outcome.NeedsWrite() {
		return nil
	}

	if opts.DryRun {
		pr.LabelsAdded = append(pr.LabelsAdded, outcome.Added...)
		pr.LabelsRemoved = append(pr.LabelsRemoved, outcome.Removed...)
		logging.Info().Int64("policy", id).Str("labels", outcome.Summary()).Msg("dry run, skipping write-back")
		return nil
	}

	if err := p.catalog.PutReconDetail(ctx, id, detail); err != nil {
		pr.Err = err
		logging.Warn().Err(err).Int64("policy", id).Msg("label write-back failed")
		if opts.FailFast {
			return err
		}
		return nil
	}

	pr.LabelsAdded = append(pr.LabelsAdded, outcome.Added...)
	pr.LabelsRemoved = append(pr.LabelsRemoved, outcome.Removed...)
	pr.Written = true
	logging.Info().Int64("policy", id).Str("labels", outcome.Summary()).Msg("labels written back")
	return nil
}

// qualityPair fetches the baseline and latest snapshots of one quality
// policy concurrently. Either failure voids the pair.
func (p *Pipeline) qualityPair(ctx context.Context, id int64, version int) (*policy.QualityDetail, *policy.QualityDetail, error) {
	var (
		baseline, latest   *policy.QualityDetail
		baseErr, latestErr error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		baseline, baseErr = p.catalog.GetQualityDetail(ctx, id, constants.BaselineVersion)
	}()
	go func() {
		defer wg.Done()
		latest, latestErr = p.catalog.GetQualityDetail(ctx, id, version)
	}()
	wg.Wait()

	if baseErr != nil {
		return nil, nil, baseErr
	}
	if latestErr != nil {
		return nil, nil, latestErr
	}
	return baseline, latest, nil
}

// reconPair is the reconciliation counterpart of qualityPair.
func (p *Pipeline) reconPair(ctx context.Context, id int64, version int) (*policy.ReconDetail, *policy.ReconDetail, error) {
	var (
		baseline, latest   *policy.ReconDetail
		baseErr, latestErr error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		baseline, baseErr = p.catalog.GetReconDetail(ctx, id, constants.BaselineVersion)
	}()
	go func() {
		defer wg.Done()
		latest, latestErr = p.catalog.GetReconDetail(ctx, id, version)
	}()
	wg.Wait()

	if baseErr != nil {
		return nil, nil, baseErr
	}
	if latestErr != nil {
		return nil, nil, latestErr
	}
	return baseline, latest, nil
}
