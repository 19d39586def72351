package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/trussim/internal/construction"
	"github.com/san-kum/trussim/internal/geom"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type SolverSettings struct {
	ToleranceRatio float64 `json:"tolerance_ratio"`
	StallLimit     int     `json:"stall_limit"`
	MaxIterations  int     `json:"max_iterations"`
	FlowRate       float64 `json:"flow_rate"`
	FailOnStall    bool    `json:"fail_on_stall"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Source      string             `json:"source"`
	Timestamp   time.Time          `json:"timestamp"`
	Nodes       int                `json:"nodes"`
	Sticks      int                `json:"sticks"`
	Solver      SolverSettings     `json:"solver"`
	Convergence Convergence        `json:"convergence"`
	Metrics     map[string]float64 `json:"metrics"`
}

var (
	nodesHeader  = []string{"index", "free", "rest_x", "rest_y", "x", "y"}
	sticksHeader = []string{"index", "n0", "n1", "material", "area", "length", "strain", "force"}
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Save stores a solved result under a new run directory and returns its id.
func (s *Store) Save(name, source string, cfg construction.Config, result *Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Source:    source,
		Timestamp: time.Now(),
		Nodes:     len(result.Nodes),
		Sticks:    len(result.Sticks),
		Solver: SolverSettings{
			ToleranceRatio: cfg.ToleranceRatio,
			StallLimit:     cfg.StallLimit,
			MaxIterations:  cfg.MaxIterations,
			FlowRate:       cfg.FlowRate,
			FailOnStall:    cfg.FailOnStall,
		},
		Convergence: result.Convergence,
		Metrics:     result.Metrics(),
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	nodeRows := make([][]string, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		nodeRows = append(nodeRows, []string{
			strconv.Itoa(n.Index),
			strconv.FormatBool(n.Free),
			formatFloat(n.Rest.X), formatFloat(n.Rest.Y),
			formatFloat(n.Solved.X), formatFloat(n.Solved.Y),
		})
	}
	if err := writeCSV(filepath.Join(runDir, "nodes.csv"), nodesHeader, nodeRows); err != nil {
		return "", err
	}

	stickRows := make([][]string, 0, len(result.Sticks))
	for _, st := range result.Sticks {
		stickRows = append(stickRows, []string{
			strconv.Itoa(st.Index),
			strconv.Itoa(st.Nodes[0]), strconv.Itoa(st.Nodes[1]),
			st.Material,
			formatFloat(st.Area), formatFloat(st.Length),
			formatFloat(st.Strain), formatFloat(st.Force),
		})
	}
	if err := writeCSV(filepath.Join(runDir, "sticks.csv"), sticksHeader, stickRows); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

// List returns the metadata of every run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func readCSV(path string, fields int) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = fields

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

// floats parses a row of numbers, reporting the first bad column.
func floats(record []string) ([]float64, error) {
	out := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (s *Store) LoadNodes(runID string) ([]NodeResult, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "nodes.csv"), len(nodesHeader))
	if err != nil {
		return nil, err
	}

	nodes := make([]NodeResult, 0, len(records))
	for i, record := range records {
		index, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("nodes.csv row %d: %w", i+1, err)
		}
		free, err := strconv.ParseBool(record[1])
		if err != nil {
			return nil, fmt.Errorf("nodes.csv row %d: %w", i+1, err)
		}
		v, err := floats(record[2:])
		if err != nil {
			return nil, fmt.Errorf("nodes.csv row %d: %w", i+1, err)
		}
		nodes = append(nodes, NodeResult{
			Index:  index,
			Free:   free,
			Rest:   geom.Coord{X: v[0], Y: v[1]},
			Solved: geom.Coord{X: v[2], Y: v[3]},
		})
	}
	return nodes, nil
}

func (s *Store) LoadSticks(runID string) ([]StickResult, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "sticks.csv"), len(sticksHeader))
	if err != nil {
		return nil, err
	}

	sticks := make([]StickResult, 0, len(records))
	for i, record := range records {
		var ints [3]int
		for j := range ints {
			if ints[j], err = strconv.Atoi(record[j]); err != nil {
				return nil, fmt.Errorf("sticks.csv row %d: %w", i+1, err)
			}
		}
		v, err := floats(record[4:])
		if err != nil {
			return nil, fmt.Errorf("sticks.csv row %d: %w", i+1, err)
		}
		sticks = append(sticks, StickResult{
			Index:    ints[0],
			Nodes:    [2]int{ints[1], ints[2]},
			Material: record[3],
			Area:     v[0],
			Length:   v[1],
			Strain:   v[2],
			Force:    v[3],
		})
	}
	return sticks, nil
}

// LoadResult reassembles a stored run.
func (s *Store) LoadResult(runID string) (*RunMetadata, *Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	nodes, err := s.LoadNodes(runID)
	if err != nil {
		return nil, nil, err
	}
	sticks, err := s.LoadSticks(runID)
	if err != nil {
		return nil, nil, err
	}
	res := &Result{Nodes: nodes, Sticks: sticks, Convergence: meta.Convergence, Summary: make(map[string]float64)}
	for _, k := range summaryKeys {
		if v, ok := meta.Metrics[k]; ok {
			res.Summary[k] = v
		}
	}
	return meta, res, nil
}
