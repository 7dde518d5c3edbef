package calibration

const schema = `
CREATE TABLE IF NOT EXISTS refs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	ref        TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS bounding_boxes (
	ref_id INTEGER NOT NULL REFERENCES refs(id),
	cipher INTEGER NOT NULL CHECK (cipher BETWEEN 0 AND 9),
	x      DOUBLE NOT NULL,
	y      DOUBLE NOT NULL,
	w      DOUBLE NOT NULL,
	h      DOUBLE NOT NULL,
	PRIMARY KEY (ref_id, cipher)
);
`

const (
	queryGetRef = `SELECT id, ref, created_at FROM refs WHERE ref = :ref`

	queryCreateRef = `INSERT INTO refs (ref, created_at) VALUES (:ref, :created_at)`

	queryDeleteRef = `DELETE FROM refs WHERE ref = :ref`

	queryDeleteBoxes = `DELETE FROM bounding_boxes WHERE ref_id = :ref_id`

	queryInsertBox = `INSERT INTO bounding_boxes (ref_id, cipher, x, y, w, h)
		VALUES (:ref_id, :cipher, :x, :y, :w, :h)`

	queryGetBoxes = `SELECT ref_id, cipher, x, y, w, h FROM bounding_boxes
		WHERE ref_id = :ref_id ORDER BY cipher`

	queryListRefs = `SELECT id, ref, created_at FROM refs ORDER BY created_at, id`
)
