// Package domain implements the sea-level projection and flood-risk model.
//
// # Pipeline
//
// A rectangular [Region] is split into an n x m [Grid] whose cell centres
// are the sample points. The region is also split into four quadrants, each
// with its own yearly temperature series ([QuadrantSeries]).
//
// For every quadrant the model:
//
//  1. fits a degree-6 polynomial T(year) to the temperature series
//     ([FitTemperature]);
//  2. integrates the anomaly T(y) - T(2012) from 2012 to a target year with a
//     100-step midpoint sum ([Integrator]);
//  3. regresses observed sea-level change (2006-2018 in the source data) on
//     that integral, keeping the slope as the calibration constant
//     ([Calibrate]);
//  4. projects sea level for each decade as constant x integral
//     ([Calibration.PredictMany]).
//
// This is the semi-empirical relation dH/dt = a (T - T0): the rate of rise is
// proportional to the temperature excess over a reference period.
//
// # Flood classification
//
// [FloodRiskEngine] classifies each altitude sample into its quadrant
// ([QuadrantClassifier]), looks up that quadrant's projections in a per-run
// [PredictionCache], and emits a [FloodRecord] for every decade where
// sea level - altitude >= 0.
//
// Points exactly on a midline are assigned to the lower-index quadrant
// (south before north, west before east) unless the classifier is built with
// [WithStrictBoundaries].
//
// # Numerics
//
// Regression and integration never fail on numeric grounds. Extrapolation far
// beyond the fitted years is allowed, and NaN or Inf results are returned as
// values for the caller to inspect.
package domain
