package predict

import (
	"fmt"

	"exoclass/internal/common"
)

// labels maps class index to disposition label.
var labels = [2]string{common.LabelFalsePositive, common.LabelConfirmed}

// LabelFor returns the disposition label for a class index.
func LabelFor(class int) (string, error) {
	if class < 0 || class >= len(labels) {
		return "", fmt.Errorf("unknown class index %d", class)
	}
	return labels[class], nil
}

// IndexOf returns the class index for a disposition label.
func IndexOf(label string) (int, error) {
	for i, l := range labels {
		if l == label {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown label %q", label)
}

// Labels returns the labels in class index order.
func Labels() []string {
	return []string{labels[0], labels[1]}
}
