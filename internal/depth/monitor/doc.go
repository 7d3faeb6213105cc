// Package monitor serves the clustering pipeline over HTTP for debugging:
// it accepts point clouds, keeps the most recent frame, and renders it as a
// go-echarts page or a gonum/plot PNG. It also holds the matching client.
//
// Nothing in the clustering layers imports this package.
package monitor
