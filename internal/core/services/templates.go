package services

import "fmt"

// QueryTemplate is a canned question with its own retrieval depth.
type QueryTemplate struct {
	Question string
	TopK     int
}

// CompareQuery asks for a comparison of two features or specifications.
func CompareQuery(a, b string) QueryTemplate {
	return QueryTemplate{
		Question: fmt.Sprintf("Compare and contrast: %s versus %s", a, b),
		TopK:     5,
	}
}

// RecommendQuery asks whether the product suits a use case.
func RecommendQuery(useCase string) QueryTemplate {
	return QueryTemplate{
		Question: fmt.Sprintf(
			"Based on the specifications, is the LeakProof Drive suitable for %s? Explain why or why not.", useCase),
		TopK: 4,
	}
}

// PerformanceQuery asks for every pump flow rate with its floor speed and unloading time.
func PerformanceQuery() QueryTemplate {
	return QueryTemplate{
		Question: "List all pump flow rates and their corresponding floor speeds and unloading times",
		TopK:     6,
	}
}
