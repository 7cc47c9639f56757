package cli

import (
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// runCommand is swapped in tests to avoid invoking the real chemfunc binary.
var runCommand = func(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// newFeaturizeCommand precomputes RDKit fingerprints for CSV datasets via the
// external chemfunc tool. Each <file>.csv produces a <file>.npz next to it.
func newFeaturizeCommand() *cobra.Command {
	var (
		smilesColumn string
		dataDir      string
	)

	cmd := &cobra.Command{
		Use:   "featurize [data.csv ...]",
		Short: "Precompute RDKit fingerprints for CSV datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if dataDir != "" {
				err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
					if err != nil {
						return err
					}
					if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
						files = append(files, path)
					}
					return nil
				})
				if err != nil {
					return err
				}
			}
			if len(files) == 0 {
				return fmt.Errorf("featurize: no CSV files given; pass paths or --data-dir")
			}

			var failed int
			for _, path := range files {
				savePath := npzPath(path)
				out, err := runCommand("chemfunc", "save_fingerprints",
					"--data_path", path,
					"--save_path", savePath,
					"--fingerprint_type", "rdkit",
					"--smiles_column", smilesColumn,
				)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "featurize %s failed: %v\n%s", path, err, out)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "featurized %s -> %s\n", path, savePath)
			}
			if failed > 0 {
				return fmt.Errorf("featurize: %d of %d files failed", failed, len(files))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&smilesColumn, "smiles-column", "smiles", "CSV column holding SMILES strings")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory walked recursively for *.csv files to featurize")
	return cmd
}

func npzPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, ".csv") + ".npz"
}
