// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type FileBackupStoreTestSuite struct {
	suite.Suite
}

func (s *FileBackupStoreTestSuite) TestRestoreMissingFileReturnsZeroValue() {
	store := NewFileBackupStore(filepath.Join(s.T().TempDir(), "does-not-exist"))

	datum, err := store.Restore("name")
	s.NoError(err)
	s.Equal(BackupDatum{}, datum)
}

func (s *FileBackupStoreTestSuite) TestBackupThenRestoreRoundTrips() {
	store := NewFileBackupStore(s.T().TempDir())

	datum := BackupDatum{
		Clusters: map[string][]ShardRecord{
			"svc": {{Name: "a", URL: "consul://h/svc", Weight: 1}},
		},
		Configs: map[string]map[string]string{
			"cfg": {"k": "v"},
		},
	}

	s.Require().NoError(store.Backup("name", datum))

	restored, err := store.Restore("name")
	s.NoError(err)
	s.Equal(datum, restored)
}

func (s *FileBackupStoreTestSuite) TestBackupOverwritesPriorContents() {
	store := NewFileBackupStore(s.T().TempDir())

	s.Require().NoError(store.Backup("name", BackupDatum{
		Configs: map[string]map[string]string{"cfg": {"k": "v1"}},
	}))
	s.Require().NoError(store.Backup("name", BackupDatum{
		Configs: map[string]map[string]string{"cfg": {"k": "v2"}},
	}))

	restored, err := store.Restore("name")
	s.NoError(err)
	s.Equal("v2", restored.Configs["cfg"]["k"])
}

func TestFileBackupStore(t *testing.T) {
	suite.Run(t, new(FileBackupStoreTestSuite))
}
