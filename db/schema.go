package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/cms-dev/cms/v2/errors"
	"github.com/cms-dev/cms/v2/model"
)

// schemaVersion is the single-row table recording which model.Version the
// tables were created for.
type schemaVersion struct {
	Version int `gorm:"not null"`
}

func (schemaVersion) TableName() string {
	return "schema_version"
}

const activeDatasetFK = "fk_tasks_active_dataset"

// Init creates every table of package model and stamps the schema version.
// Running it on an initialized database adds what is missing and rewrites
// the stamp.
func Init(ctx context.Context, gdb *gorm.DB) error {
	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(model.Models()...); err != nil {
			return errors.Wrap(err, "creating tables")
		}
		// tasks and datasets reference each other, so the second edge is
		// added once both tables exist. The composite key keeps the active
		// dataset among the task's own. SQLite cannot add constraints to an
		// existing table; there Task.BeforeSave is the only check.
		if tx.Dialector.Name() == "postgres" && !tx.Migrator().HasConstraint(&model.Task{}, activeDatasetFK) {
			err := tx.Exec(`ALTER TABLE tasks ADD CONSTRAINT ` + activeDatasetFK + `
				FOREIGN KEY (id, active_dataset_id) REFERENCES datasets (task_id, id)`).Error
			if err != nil {
				return errors.Wrap(err, "adding active dataset constraint")
			}
		}
		if err := tx.AutoMigrate(&schemaVersion{}); err != nil {
			return errors.Wrap(err, "creating schema_version")
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&schemaVersion{}).Error; err != nil {
			return errors.Wrap(err, "clearing schema_version")
		}
		if err := tx.Create(&schemaVersion{Version: model.Version}).Error; err != nil {
			return errors.Wrap(err, "stamping schema_version")
		}
		return nil
	})
}

// Drop removes every table Init creates, data included.
func Drop(ctx context.Context, gdb *gorm.DB) error {
	tables := append(model.Models(), &schemaVersion{})
	if err := gdb.WithContext(ctx).Migrator().DropTable(tables...); err != nil {
		return errors.Wrap(err, "dropping tables")
	}
	return nil
}

// StoredVersion returns the version stamped by Init. It fails with
// ErrSchemaVersionMismatch when the database was never initialized.
func StoredVersion(ctx context.Context, gdb *gorm.DB) (int, error) {
	gdb = gdb.WithContext(ctx)
	if !gdb.Migrator().HasTable(&schemaVersion{}) {
		return 0, errors.New(errors.ErrSchemaVersionMismatch, "database has no schema_version table; run cmsdb init")
	}
	var rows []schemaVersion
	if err := gdb.Limit(2).Find(&rows).Error; err != nil {
		return 0, Translate(ctx, err, "reading schema_version")
	}
	if len(rows) != 1 {
		return 0, errors.Newf(errors.ErrSchemaVersionMismatch, "schema_version has %d rows, want 1", len(rows))
	}
	return rows[0].Version, nil
}

// CheckVersion fails with ErrSchemaVersionMismatch unless the stored schema
// version equals model.Version. There is no automatic migration.
func CheckVersion(ctx context.Context, gdb *gorm.DB) error {
	v, err := StoredVersion(ctx, gdb)
	if err != nil {
		return err
	}
	if v != model.Version {
		return errors.Newf(errors.ErrSchemaVersionMismatch,
			"database schema version is %d, this build expects %d", v, model.Version)
	}
	return nil
}

// Init, Drop and CheckVersion on the engine's pool.

func (e *Engine) Init(ctx context.Context) error {
	return Init(ctx, e.db)
}

func (e *Engine) Drop(ctx context.Context) error {
	return Drop(ctx, e.db)
}

func (e *Engine) CheckVersion(ctx context.Context) error {
	return CheckVersion(ctx, e.db)
}
