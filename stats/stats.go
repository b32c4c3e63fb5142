// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stats provides small statistical summaries of derived climatology
// profiles and variable buffers, built on github.com/GaryBoone/GoStats/stats
// the same way the teacher's eval package reports observation/model
// comparison statistics.
package stats

import (
	gostats "github.com/GaryBoone/GoStats/stats"
)

// ProfileSummary reports the mean and sample variance of a climatology
// profile or any other slice of derived values, for inclusion in a
// variable's Description when auxiliary data was substituted.
type ProfileSummary struct {
	Mean     float64
	Variance float64
	Min      float64
	Max      float64
}

// Summarize computes a ProfileSummary over values. Returns the zero value
// for an empty slice.
func Summarize(values []float64) ProfileSummary {
	if len(values) == 0 {
		return ProfileSummary{}
	}
	return ProfileSummary{
		Mean:     gostats.StatsMean(values),
		Variance: gostats.StatsSampleVariance(values),
		Min:      gostats.StatsMin(values),
		Max:      gostats.StatsMax(values),
	}
}

// Correlation reports the linear fit (slope, intercept, r-squared) between
// a derived variable's values and a reference/climatology profile of the
// same length, grounded on the teacher's eval package use of
// stats.LinearRegression for observation/model comparison.
func Correlation(x, y []float64) (slope, intercept, rSquared float64) {
	slope, intercept, rSquared, _, _, _ = gostats.LinearRegression(x, y)
	return slope, intercept, rSquared
}
