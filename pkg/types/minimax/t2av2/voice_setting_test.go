package t2av2

import (
	"net/url"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVoiceSettingParams(t *testing.T) {
	t.Parallel()

	t.Run("NoParams", func(t *testing.T) {
		t.Parallel()

		setting := ParseVoiceSettingParams("female-shaonv", url.Values{})
		assert.Equal(t, VoiceSetting{VoiceID: "female-shaonv"}, setting)
	})

	t.Run("Speed", func(t *testing.T) {
		t.Parallel()

		type testCase struct {
			name     string
			raw      string
			expected *float64
		}

		testCases := []testCase{
			{name: "InRange", raw: "1.5", expected: lo.ToPtr(1.5)},
			{name: "LowerBound", raw: "0.5", expected: lo.ToPtr(0.5)},
			{name: "OutOfRangePassesThrough", raw: "3", expected: lo.ToPtr(3.0)},
			{name: "Spaces", raw: " 1.25 ", expected: lo.ToPtr(1.25)},
			{name: "NotANumber", raw: "abc"},
			{name: "Empty", raw: ""},
			{name: "NaN", raw: "NaN"},
			{name: "Inf", raw: "inf"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				setting := ParseVoiceSettingParams("v", url.Values{QueryParamSpeed: []string{tc.raw}})
				if tc.expected == nil {
					assert.Nil(t, setting.Speed)
					return
				}

				require.NotNil(t, setting.Speed)
				assert.InDelta(t, *tc.expected, *setting.Speed, 0)
			})
		}
	})

	t.Run("Vol", func(t *testing.T) {
		t.Parallel()

		type testCase struct {
			name     string
			raw      string
			expected *float64
		}

		testCases := []testCase{
			{name: "InRange", raw: "5", expected: lo.ToPtr(5.0)},
			{name: "UpperBound", raw: "10", expected: lo.ToPtr(10.0)},
			{name: "ZeroPassesThrough", raw: "0", expected: lo.ToPtr(0.0)},
			{name: "AboveRangePassesThrough", raw: "12.5", expected: lo.ToPtr(12.5)},
			{name: "NotANumber", raw: "loud"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				setting := ParseVoiceSettingParams("v", url.Values{QueryParamVol: []string{tc.raw}})
				if tc.expected == nil {
					assert.Nil(t, setting.Vol)
					return
				}

				require.NotNil(t, setting.Vol)
				assert.InDelta(t, *tc.expected, *setting.Vol, 0)
			})
		}
	})

	t.Run("Pitch", func(t *testing.T) {
		t.Parallel()

		type testCase struct {
			name     string
			raw      string
			expected *int
		}

		testCases := []testCase{
			{name: "Integer", raw: "3", expected: lo.ToPtr(3)},
			{name: "Truncated", raw: "3.7", expected: lo.ToPtr(3)},
			{name: "NegativeTruncatedTowardZero", raw: "-3.7", expected: lo.ToPtr(-3)},
			{name: "OutOfRangePassesThrough", raw: "20", expected: lo.ToPtr(20)},
			{name: "NotANumber", raw: "high"},
			{name: "TooLarge", raw: "1e300"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				setting := ParseVoiceSettingParams("v", url.Values{QueryParamPitch: []string{tc.raw}})
				if tc.expected == nil {
					assert.Nil(t, setting.Pitch)
					return
				}

				require.NotNil(t, setting.Pitch)
				assert.Equal(t, *tc.expected, *setting.Pitch)
			})
		}
	})

	t.Run("Independent", func(t *testing.T) {
		t.Parallel()

		setting := ParseVoiceSettingParams("v", url.Values{
			QueryParamSpeed: []string{"abc"},
			QueryParamVol:   []string{"2"},
			QueryParamPitch: []string{"-1"},
		})

		assert.Nil(t, setting.Speed)
		require.NotNil(t, setting.Vol)
		assert.InDelta(t, 2.0, *setting.Vol, 0)
		require.NotNil(t, setting.Pitch)
		assert.Equal(t, -1, *setting.Pitch)
	})
}
