// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package rng

import (
	"github.com/safing/entropyrng/config"
)

// Configuration Keys.
const (
	CfgPoolCapacity         = "rng/pool/capacity"
	CfgInactivityTimeout    = "rng/pool/inactivity_timeout_ms"
	CfgMinMouseSamples      = "rng/ready/min_mouse_samples"
	CfgMinActiveSeconds     = "rng/ready/min_active_seconds"
	CfgMinAudioSamples      = "rng/ready/min_audio_samples"
	CfgAudioEnabled         = "rng/audio/enabled"
	CfgOutputRange          = "rng/output/range"
	CfgTruncationBits       = "rng/output/truncation_bits"
	CfgAllowRejection       = "rng/output/allow_rejection_sampling"
	CfgDigest               = "rng/digest"
	CfgStreamCipher         = "rng/stream/cipher"
	CfgSchedulerIntervalMs  = "rng/scheduler/interval_ms"
	CfgSchedulerEnabled     = "rng/scheduler/enabled"
	defaultDigestOptionName = "SHA2-256"
)

var (
	poolCapacity        config.IntOption
	inactivityTimeoutMs config.IntOption
	minMouseSamples     config.IntOption
	minActiveSeconds    config.IntOption
	minAudioSamples     config.IntOption
	audioEnabled        config.BoolOption
	outputRange         config.IntOption
	truncationBits      config.IntOption
	allowRejection      config.BoolOption
	digestName          config.StringOption
	streamCipher        config.StringOption
	schedulerIntervalMs config.IntOption
	schedulerEnabled    config.BoolOption
)

func registerConfig() error {
	for _, opt := range []*config.Option{
		{
			Name:            "Pool Capacity",
			Key:             CfgPoolCapacity,
			Description:     "Maximum amount of fragments kept per entropy source. The oldest fragments are evicted first.",
			OptType:         config.OptTypeInt,
			ExpertiseLevel:  config.ExpertiseLevelExpert,
			RequiresRestart: true,
			DefaultValue:    2000,
			ValidationRegex: "^[1-9][0-9]{0,6}$",
		},
		{
			Name:            "Mouse Inactivity Timeout",
			Key:             CfgInactivityTimeout,
			Description:     "Mouse movements further apart than this (in milliseconds) do not count as active movement.",
			OptType:         config.OptTypeInt,
			ExpertiseLevel:  config.ExpertiseLevelExpert,
			RequiresRestart: true,
			DefaultValue:    2000,
			ValidationRegex: "^[1-9][0-9]{0,6}$",
		},
		{
			Name:            "Minimum Mouse Samples",
			Key:             CfgMinMouseSamples,
			Description:     "Amount of mouse samples required before numbers are generated.",
			OptType:         config.OptTypeInt,
			RequiresRestart: true,
			DefaultValue:    300,
		},
		{
			Name:            "Minimum Active Movement",
			Key:             CfgMinActiveSeconds,
			Description:     "Seconds of active mouse movement required before numbers are generated.",
			OptType:         config.OptTypeInt,
			RequiresRestart: true,
			DefaultValue:    30,
		},
		{
			Name:            "Minimum Audio Samples",
			Key:             CfgMinAudioSamples,
			Description:     "Amount of audio blocks required before numbers are generated. Only applies if audio is enabled.",
			OptType:         config.OptTypeInt,
			RequiresRestart: true,
			DefaultValue:    100,
		},
		{
			Name:            "Audio Source",
			Key:             CfgAudioEnabled,
			Description:     "Require audio entropy from an external capture process.",
			OptType:         config.OptTypeBool,
			RequiresRestart: true,
			DefaultValue:    false,
		},
		{
			Name:            "Output Range",
			Key:             CfgOutputRange,
			Description:     "Generated numbers are in [0, range).",
			OptType:         config.OptTypeInt,
			ExpertiseLevel:  config.ExpertiseLevelExpert,
			RequiresRestart: true,
			DefaultValue:    DefaultRange,
		},
		{
			Name:            "Digest Truncation Bits",
			Key:             CfgTruncationBits,
			Description:     "Amount of leading digest bits used per generated number.",
			OptType:         config.OptTypeInt,
			ExpertiseLevel:  config.ExpertiseLevelDeveloper,
			RequiresRestart: true,
			DefaultValue:    DefaultTruncationBits,
		},
		{
			Name:            "Allow Rejection Sampling",
			Key:             CfgAllowRejection,
			Description:     "Allow output ranges that do not divide 2^bits by discarding biased digest prefixes.",
			OptType:         config.OptTypeBool,
			ExpertiseLevel:  config.ExpertiseLevelDeveloper,
			RequiresRestart: true,
			DefaultValue:    false,
		},
		{
			Name:            "Digest Algorithm",
			Key:             CfgDigest,
			Description:     "Hash function used to mix the pool.",
			OptType:         config.OptTypeString,
			ExpertiseLevel:  config.ExpertiseLevelDeveloper,
			RequiresRestart: true,
			DefaultValue:    defaultDigestOptionName,
		},
		{
			Name:            "Stream Cipher",
			Key:             CfgStreamCipher,
			Description:     "Block cipher of the Fortuna generator behind the byte stream.",
			OptType:         config.OptTypeString,
			ExpertiseLevel:  config.ExpertiseLevelDeveloper,
			RequiresRestart: true,
			DefaultValue:    "aes",
			ValidationRegex: "^(aes|serpent)$",
		},
		{
			Name:            "Scheduler Sampling Interval",
			Key:             CfgSchedulerIntervalMs,
			Description:     "Milliseconds between two scheduler samples.",
			OptType:         config.OptTypeInt,
			ExpertiseLevel:  config.ExpertiseLevelExpert,
			RequiresRestart: true,
			DefaultValue:    10,
			ValidationRegex: "^[1-9][0-9]{0,4}$",
		},
		{
			Name:            "Scheduler Source",
			Key:             CfgSchedulerEnabled,
			Description:     "Sample the host's CPU times and process count.",
			OptType:         config.OptTypeBool,
			ExpertiseLevel:  config.ExpertiseLevelDeveloper,
			RequiresRestart: true,
			DefaultValue:    true,
		},
	} {
		if err := config.Register(opt); err != nil {
			return err
		}
	}

	poolCapacity = config.Concurrent.GetAsInt(CfgPoolCapacity, 2000)
	inactivityTimeoutMs = config.Concurrent.GetAsInt(CfgInactivityTimeout, 2000)
	minMouseSamples = config.Concurrent.GetAsInt(CfgMinMouseSamples, 300)
	minActiveSeconds = config.Concurrent.GetAsInt(CfgMinActiveSeconds, 30)
	minAudioSamples = config.Concurrent.GetAsInt(CfgMinAudioSamples, 100)
	audioEnabled = config.Concurrent.GetAsBool(CfgAudioEnabled, false)
	outputRange = config.Concurrent.GetAsInt(CfgOutputRange, DefaultRange)
	truncationBits = config.Concurrent.GetAsInt(CfgTruncationBits, DefaultTruncationBits)
	allowRejection = config.Concurrent.GetAsBool(CfgAllowRejection, false)
	digestName = config.Concurrent.GetAsString(CfgDigest, defaultDigestOptionName)
	streamCipher = config.Concurrent.GetAsString(CfgStreamCipher, "aes")
	schedulerIntervalMs = config.Concurrent.GetAsInt(CfgSchedulerIntervalMs, 10)
	schedulerEnabled = config.Concurrent.GetAsBool(CfgSchedulerEnabled, true)

	return nil
}
