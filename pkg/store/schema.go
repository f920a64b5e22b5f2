package store

// Column names are lower snake case so that SQLite and PostgreSQL report them
// identically to the struct tags.

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS IdentificationTable (
	identification_id INTEGER PRIMARY KEY,
	spectrum_id INTEGER,
	sequence TEXT NOT NULL,
	modified_sequence TEXT NOT NULL,
	charge INTEGER NOT NULL,
	instrument_name TEXT NOT NULL DEFAULT '',
	n_terminal TEXT NOT NULL DEFAULT '',
	c_terminal TEXT NOT NULL DEFAULT '',
	total_intensity DOUBLE,
	neutral_mass DOUBLE,
	precursor_mz DOUBLE
);

CREATE TABLE IF NOT EXISTS FragmentIonTable (
	fragment_ion_id INTEGER PRIMARY KEY AUTOINCREMENT,
	identification_id INTEGER NOT NULL,
	ion_type TEXT NOT NULL,
	ion_name TEXT NOT NULL DEFAULT '',
	ion_number INTEGER NOT NULL,
	charge INTEGER NOT NULL,
	neutral_loss TEXT NOT NULL DEFAULT '',
	mz DOUBLE NOT NULL,
	intensity DOUBLE NOT NULL,
	mass_error DOUBLE,
	significance INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_fragment_ion_identification ON FragmentIonTable(identification_id);

CREATE TABLE IF NOT EXISTS SpectrumTable (
	spectrum_id INTEGER PRIMARY KEY,
	num_peaks INTEGER NOT NULL,
	total_intensity DOUBLE,
	blob_mass BLOB,
	blob_intensity BLOB
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS IdentificationTable (
	identification_id BIGINT PRIMARY KEY,
	spectrum_id BIGINT,
	sequence TEXT NOT NULL,
	modified_sequence TEXT NOT NULL,
	charge INTEGER NOT NULL,
	instrument_name TEXT NOT NULL DEFAULT '',
	n_terminal TEXT NOT NULL DEFAULT '',
	c_terminal TEXT NOT NULL DEFAULT '',
	total_intensity DOUBLE PRECISION,
	neutral_mass DOUBLE PRECISION,
	precursor_mz DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS FragmentIonTable (
	fragment_ion_id BIGSERIAL PRIMARY KEY,
	identification_id BIGINT NOT NULL,
	ion_type TEXT NOT NULL,
	ion_name TEXT NOT NULL DEFAULT '',
	ion_number INTEGER NOT NULL,
	charge INTEGER NOT NULL,
	neutral_loss TEXT NOT NULL DEFAULT '',
	mz DOUBLE PRECISION NOT NULL,
	intensity DOUBLE PRECISION NOT NULL,
	mass_error DOUBLE PRECISION,
	significance INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_fragment_ion_identification ON FragmentIonTable(identification_id);

CREATE TABLE IF NOT EXISTS SpectrumTable (
	spectrum_id BIGINT PRIMARY KEY,
	num_peaks INTEGER NOT NULL,
	total_intensity DOUBLE PRECISION,
	blob_mass BYTEA,
	blob_intensity BYTEA
);
`
