// Package space expands a sweep declaration into the points it covers.
//
// A Spec is an ordered list of Dimensions. Points are generated depth-first:
// the first dimension varies slowest and the last varies fastest. When a
// dimension's value is bound it is first written into the accumulating
// argument list and then, if the dimension declares a Setup, the setup is
// applied to the list. Setups run in declared dimension order, so a setup may
// read or overwrite anything an earlier dimension wrote.
//
// Validate reports configuration errors (empty dimensions, duplicate names,
// setups reading names nobody declares) before any point is generated.
package space
