package storage

// schema is applied on every start. All statements are idempotent.
//
// Section tables carry a UNIQUE constraint on (character_id, <native id>).
// That constraint is the idempotency key for reconciliation: synchronizers
// upsert against it and concurrent duplicate creates collapse into no-ops.
const schema = `
CREATE TABLE IF NOT EXISTS eve_entities (
	id INTEGER PRIMARY KEY NOT NULL,
	category TEXT NOT NULL,
	name TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS eve_entities_category_idx ON eve_entities (category);

CREATE TABLE IF NOT EXISTS eve_locations (
	id INTEGER PRIMARY KEY NOT NULL,
	name TEXT NOT NULL,
	eve_solar_system_id INTEGER,
	eve_type_id INTEGER,
	owner_id INTEGER,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (eve_solar_system_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	FOREIGN KEY (eve_type_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	FOREIGN KEY (owner_id) REFERENCES eve_entities(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS characters (
	id INTEGER PRIMARY KEY NOT NULL,
	name TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	is_visible NUMERIC NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS character_tokens (
	character_id INTEGER PRIMARY KEY NOT NULL,
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	expires_at DATETIME NOT NULL,
	token_type TEXT NOT NULL,
	scopes TEXT NOT NULL,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS character_section_status (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	character_id INTEGER NOT NULL,
	section_id TEXT NOT NULL,
	is_success NUMERIC NOT NULL,
	error_message TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
	UNIQUE (character_id, section_id)
);

CREATE TABLE IF NOT EXISTS character_details (
	character_id INTEGER PRIMARY KEY NOT NULL,
	corporation_id INTEGER NOT NULL,
	alliance_id INTEGER,
	birthday DATETIME NOT NULL,
	description TEXT NOT NULL,
	gender TEXT NOT NULL,
	race_id INTEGER NOT NULL,
	security_status REAL NOT NULL,
	title TEXT NOT NULL,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
	FOREIGN KEY (corporation_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	FOREIGN KEY (alliance_id) REFERENCES eve_entities(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS character_corporation_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	character_id INTEGER NOT NULL,
	record_id INTEGER NOT NULL,
	corporation_id INTEGER NOT NULL,
	is_deleted NUMERIC NOT NULL,
	start_date DATETIME NOT NULL,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
	FOREIGN KEY (corporation_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	UNIQUE (character_id, record_id)
);

CREATE TABLE IF NOT EXISTS character_jump_clones (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	character_id INTEGER NOT NULL,
	jump_clone_id INTEGER NOT NULL,
	location_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
	FOREIGN KEY (location_id) REFERENCES eve_locations(id) ON DELETE CASCADE,
	UNIQUE (character_id, jump_clone_id)
);

CREATE TABLE IF NOT EXISTS character_jump_clone_implants (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	clone_id INTEGER NOT NULL,
	eve_type_id INTEGER NOT NULL,
	FOREIGN KEY (clone_id) REFERENCES character_jump_clones(id) ON DELETE CASCADE,
	FOREIGN KEY (eve_type_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	UNIQUE (clone_id, eve_type_id)
);

CREATE TABLE IF NOT EXISTS character_mail_lists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	character_id INTEGER NOT NULL,
	list_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
	UNIQUE (character_id, list_id)
);

CREATE TABLE IF NOT EXISTS character_mail_labels (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	character_id INTEGER NOT NULL,
	label_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	color TEXT NOT NULL,
	unread_count INTEGER NOT NULL,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
	UNIQUE (character_id, label_id)
);

CREATE TABLE IF NOT EXISTS character_mails (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	character_id INTEGER NOT NULL,
	mail_id INTEGER NOT NULL,
	from_id INTEGER NOT NULL,
	subject TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	is_read NUMERIC NOT NULL,
	body TEXT NOT NULL,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
	FOREIGN KEY (from_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	UNIQUE (character_id, mail_id)
);
CREATE INDEX IF NOT EXISTS character_mails_timestamp_idx ON character_mails (timestamp DESC);

CREATE TABLE IF NOT EXISTS character_mail_mail_labels (
	mail_id INTEGER NOT NULL,
	label_id INTEGER NOT NULL,
	PRIMARY KEY (mail_id, label_id),
	FOREIGN KEY (mail_id) REFERENCES character_mails(id) ON DELETE CASCADE,
	FOREIGN KEY (label_id) REFERENCES character_mail_labels(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS character_mail_recipients (
	mail_id INTEGER NOT NULL,
	eve_entity_id INTEGER NOT NULL,
	PRIMARY KEY (mail_id, eve_entity_id),
	FOREIGN KEY (mail_id) REFERENCES character_mails(id) ON DELETE CASCADE,
	FOREIGN KEY (eve_entity_id) REFERENCES eve_entities(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS character_skillpoints (
	character_id INTEGER PRIMARY KEY NOT NULL,
	total INTEGER NOT NULL,
	unallocated INTEGER,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS character_skills (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	character_id INTEGER NOT NULL,
	eve_type_id INTEGER NOT NULL,
	active_skill_level INTEGER NOT NULL,
	trained_skill_level INTEGER NOT NULL,
	skill_points_in_skill INTEGER NOT NULL,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
	FOREIGN KEY (eve_type_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	UNIQUE (character_id, eve_type_id)
);

CREATE TABLE IF NOT EXISTS character_wallet_balance (
	character_id INTEGER PRIMARY KEY NOT NULL,
	balance REAL NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS character_wallet_journal (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	character_id INTEGER NOT NULL,
	ref_id INTEGER NOT NULL,
	amount REAL NOT NULL,
	balance REAL NOT NULL,
	context_id INTEGER,
	context_id_type TEXT NOT NULL,
	date DATETIME NOT NULL,
	description TEXT NOT NULL,
	first_party_id INTEGER,
	second_party_id INTEGER,
	reason TEXT NOT NULL,
	ref_type TEXT NOT NULL,
	tax REAL,
	tax_receiver_id INTEGER,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
	FOREIGN KEY (first_party_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	FOREIGN KEY (second_party_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	FOREIGN KEY (tax_receiver_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	UNIQUE (character_id, ref_id)
);

CREATE TABLE IF NOT EXISTS character_contracts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	character_id INTEGER NOT NULL,
	contract_id INTEGER NOT NULL,
	acceptor_id INTEGER,
	assignee_id INTEGER,
	availability TEXT NOT NULL,
	buyout REAL NOT NULL,
	collateral REAL NOT NULL,
	date_accepted DATETIME,
	date_completed DATETIME,
	date_expired DATETIME NOT NULL,
	date_issued DATETIME NOT NULL,
	days_to_complete INTEGER NOT NULL,
	end_location_id INTEGER,
	for_corporation NUMERIC NOT NULL,
	issuer_id INTEGER NOT NULL,
	issuer_corporation_id INTEGER NOT NULL,
	price REAL NOT NULL,
	reward REAL NOT NULL,
	start_location_id INTEGER,
	status TEXT NOT NULL,
	title TEXT NOT NULL,
	type TEXT NOT NULL,
	volume REAL NOT NULL,
	FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE,
	FOREIGN KEY (acceptor_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	FOREIGN KEY (assignee_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	FOREIGN KEY (issuer_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	FOREIGN KEY (issuer_corporation_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	FOREIGN KEY (end_location_id) REFERENCES eve_locations(id) ON DELETE CASCADE,
	FOREIGN KEY (start_location_id) REFERENCES eve_locations(id) ON DELETE CASCADE,
	UNIQUE (character_id, contract_id)
);

CREATE TABLE IF NOT EXISTS character_contract_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	contract_pk INTEGER NOT NULL,
	record_id INTEGER NOT NULL,
	is_included NUMERIC NOT NULL,
	is_singleton NUMERIC NOT NULL,
	quantity INTEGER NOT NULL,
	raw_quantity INTEGER,
	eve_type_id INTEGER NOT NULL,
	FOREIGN KEY (contract_pk) REFERENCES character_contracts(id) ON DELETE CASCADE,
	FOREIGN KEY (eve_type_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	UNIQUE (contract_pk, record_id)
);

CREATE TABLE IF NOT EXISTS character_contract_bids (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	contract_pk INTEGER NOT NULL,
	bid_id INTEGER NOT NULL,
	amount REAL NOT NULL,
	date_bid DATETIME NOT NULL,
	bidder_id INTEGER NOT NULL,
	FOREIGN KEY (contract_pk) REFERENCES character_contracts(id) ON DELETE CASCADE,
	FOREIGN KEY (bidder_id) REFERENCES eve_entities(id) ON DELETE CASCADE,
	UNIQUE (contract_pk, bid_id)
);
`
