// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package randtest

import (
	"github.com/safing/entropyrng/config"
	"github.com/safing/entropyrng/modules"
)

// Configuration Keys.
const (
	CfgRange           = "rng/output/range"
	CfgBuckets         = "randtest/frequency/buckets"
	CfgAlpha           = "randtest/alpha"
	CfgMaxSerialR      = "randtest/serial/max_abs_r"
	CfgMaxRunsZ        = "randtest/runs/max_abs_z"
	CfgGapTarget       = "randtest/gap/target"
	CfgGapTolerance    = "randtest/gap/tolerance"
	CfgMinEntropyRatio = "randtest/entropy/min_ratio"
)

func init() {
	modules.Register("randtest", prep, nil, nil, "config")
}

func prep() error {
	def := DefaultPolicy()
	for _, opt := range []*config.Option{
		{
			Name:           "Frequency Buckets",
			Key:            CfgBuckets,
			Description:    "Amount of buckets the value range is split into for the chi-square frequency test.",
			OptType:        config.OptTypeInt,
			ExpertiseLevel: config.ExpertiseLevelExpert,
			DefaultValue:   def.Buckets,
		},
		{
			Name:            "Significance Level",
			Key:             CfgAlpha,
			Description:     "The frequency test fails if its p-value is below this level.",
			OptType:         config.OptTypeFloat,
			ExpertiseLevel:  config.ExpertiseLevelExpert,
			DefaultValue:    def.Alpha,
			ValidationRegex: `^0\.[0-9]+$`,
		},
		{
			Name:           "Maximum Serial Correlation",
			Key:            CfgMaxSerialR,
			Description:    "The serial correlation test fails if the absolute lag-1 correlation reaches this value.",
			OptType:        config.OptTypeFloat,
			ExpertiseLevel: config.ExpertiseLevelExpert,
			DefaultValue:   def.MaxSerialR,
		},
		{
			Name:           "Maximum Runs Z-Score",
			Key:            CfgMaxRunsZ,
			Description:    "The runs test fails if the absolute z-score reaches this value.",
			OptType:        config.OptTypeFloat,
			ExpertiseLevel: config.ExpertiseLevelExpert,
			DefaultValue:   def.MaxRunsZ,
		},
		{
			Name:           "Gap Target",
			Key:            CfgGapTarget,
			Description:    "Value whose gaps between occurrences are measured.",
			OptType:        config.OptTypeInt,
			ExpertiseLevel: config.ExpertiseLevelExpert,
			DefaultValue:   def.GapTarget,
		},
		{
			Name:           "Gap Tolerance",
			Key:            CfgGapTolerance,
			Description:    "Allowed relative deviation of the mean gap from the expected gap.",
			OptType:        config.OptTypeFloat,
			ExpertiseLevel: config.ExpertiseLevelExpert,
			DefaultValue:   def.GapTolerance,
		},
		{
			Name:           "Minimum Entropy Ratio",
			Key:            CfgMinEntropyRatio,
			Description:    "The entropy test fails unless the Shannon entropy exceeds this share of the maximum.",
			OptType:        config.OptTypeFloat,
			ExpertiseLevel: config.ExpertiseLevelExpert,
			DefaultValue:   def.MinEntropyRatio,
		},
	} {
		if err := config.Register(opt); err != nil {
			return err
		}
	}
	return nil
}

// PolicyFromConfig returns the policy defined by the current configuration.
// Unregistered options fall back to the default policy. The bucket count
// and the gap target follow the configured range unless they are set.
func PolicyFromConfig() Policy {
	def := PolicyForRange(int(config.Concurrent.GetAsInt(CfgRange, int64(DefaultPolicy().Range))()))
	return Policy{
		Range:           def.Range,
		Buckets:         explicitInt(CfgBuckets, def.Buckets),
		Alpha:           config.Concurrent.GetAsFloat(CfgAlpha, def.Alpha)(),
		MaxRunsZ:        config.Concurrent.GetAsFloat(CfgMaxRunsZ, def.MaxRunsZ)(),
		MaxSerialR:      config.Concurrent.GetAsFloat(CfgMaxSerialR, def.MaxSerialR)(),
		GapTarget:       explicitInt(CfgGapTarget, def.GapTarget),
		GapTolerance:    config.Concurrent.GetAsFloat(CfgGapTolerance, def.GapTolerance)(),
		MinEntropyRatio: config.Concurrent.GetAsFloat(CfgMinEntropyRatio, def.MinEntropyRatio)(),
	}
}

func explicitInt(key string, derived int) int {
	if !config.IsSet(key) {
		return derived
	}
	return int(config.Concurrent.GetAsInt(key, int64(derived))())
}
