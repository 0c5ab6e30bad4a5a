package comments

// scrollThresholdPx is how close to the bottom of the scroll region the
// viewport must be before the next page loads.
const scrollThresholdPx = 10

// ShouldLoadMore reports whether a scroll position warrants fetching the
// next comment page: the viewport bottom is within the threshold of the
// content bottom. Kept as a pure function so pagination triggering is
// testable without a DOM.
func ShouldLoadMore(scrollTop, clientHeight, scrollHeight float64) bool {
	return scrollTop+clientHeight >= scrollHeight-scrollThresholdPx
}
