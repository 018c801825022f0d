package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create storage_objects table
			CREATE TABLE storage_objects (
				key TEXT PRIMARY KEY,
				data JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_storage_objects_updated_at ON storage_objects(updated_at);
		`,
	}
}
