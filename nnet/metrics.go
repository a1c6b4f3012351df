package nnet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
)

// Point is one metric sample read back from the log.
type Point struct {
	Epoch int
	Value float64
}

// AppendMetrics adds one row per measure for the epoch to <model>.csv under
// DataDir, writing the header when the file is new. Measures are keyed by
// epoch number and name: loss, val_loss, acc or val_acc.
func AppendMetrics(model string, s Stats) error {
	filePath := path.Join(DataDir, model+".csv")
	newFile := !FileExists(model + ".csv")
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if newFile {
		if err := w.Write([]string{"epoch", "measure", "value"}); err != nil {
			return err
		}
	}
	for i, name := range StatsHeaders {
		row := []string{
			strconv.Itoa(s.Epoch),
			name,
			strconv.FormatFloat(s.Values()[i], 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadMetrics loads the metric series per measure name from <model>.csv,
// each sorted by epoch.
func ReadMetrics(model string) (map[string][]Point, error) {
	f, err := os.Open(path.Join(DataDir, model+".csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	series := map[string][]Point{}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) != 3 {
			return nil, fmt.Errorf("metrics: bad row %d: %v", i, row)
		}
		epoch, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("metrics: bad epoch in row %d: %v", i, row)
		}
		val, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("metrics: bad value in row %d: %v", i, row)
		}
		series[row[1]] = append(series[row[1]], Point{Epoch: epoch, Value: val})
	}
	for _, points := range series {
		sort.Slice(points, func(i, j int) bool { return points[i].Epoch < points[j].Epoch })
	}
	return series, nil
}

// RemoveMetrics deletes the metrics log prior to a fresh training run.
func RemoveMetrics(model string) error {
	err := os.Remove(path.Join(DataDir, model+".csv"))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
