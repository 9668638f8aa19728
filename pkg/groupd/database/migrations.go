package database

// Each entry is applied exactly once, in order, and must record its own version.
var migrations = []string{
	`
CREATE TABLE migrations
(
    version int primary key          not null,
    created timestamp with time zone not null
);

CREATE TABLE deployment_group
(
    id         text primary key         not null,
    created_by text                     not null,
    created    timestamp with time zone not null,
    lifecycle  text                     not null
);

INSERT INTO migrations (version, created)
VALUES (1, now());
`,
	`
ALTER TABLE deployment_group
    ADD CONSTRAINT deployment_group_lifecycle_check
        CHECK (lifecycle IN ('unmaterialized', 'materialized', 'materialization_failed'));

CREATE INDEX deployment_group_created_by_idx ON deployment_group (created_by);

INSERT INTO migrations (version, created)
VALUES (2, now());
`,
}
