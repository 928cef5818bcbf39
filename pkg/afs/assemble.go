package afs

import "fmt"

// Assemble builds a FileServer entity from parsed records. It is a pure
// construction: the returned entity is complete and callers treat it as
// immutable afterwards.
//
// Volumes are tied to partitions by name. A volume naming a partition the
// server does not report is kept with an unresolved reference and surfaced
// as a warning rather than dropped.
func Assemble(hostname string, threads ThreadStats, partitions []Partition, volumes []Volume) (*FileServer, []Warning) {
	fs := &FileServer{
		Hostname:   hostname,
		State:      StateNormal,
		Threads:    threads,
		Partitions: make(map[string]Partition, len(partitions)),
		Volumes:    make(map[string]Volume, len(volumes)),
	}

	var warnings []Warning

	for _, p := range partitions {
		if _, dup := fs.Partitions[p.Name]; dup {
			warnings = append(warnings, Warning{
				Host:    hostname,
				Message: fmt.Sprintf("duplicate partition %s, keeping first", p.Name),
			})
			continue
		}
		fs.Partitions[p.Name] = p
	}

	for _, v := range volumes {
		if _, dup := fs.Volumes[v.Name]; dup {
			warnings = append(warnings, Warning{
				Host:    hostname,
				Message: fmt.Sprintf("duplicate volume %s, keeping first", v.Name),
			})
			continue
		}
		if v.PartitionName != "" {
			_, v.PartitionResolved = fs.Partitions[v.PartitionName]
			if !v.PartitionResolved {
				warnings = append(warnings, Warning{
					Host: hostname,
					Message: fmt.Sprintf(
						"volume %s references unknown partition %s", v.Name, v.PartitionName),
				})
			}
		}
		fs.Volumes[v.Name] = v
	}

	return fs, warnings
}

// Unreachable builds the placeholder entity for a server that could not be
// queried: empty maps and zero thread stats, never defaults that look like
// real readings.
func Unreachable(hostname string, state ServerState) *FileServer {
	return &FileServer{
		Hostname:   hostname,
		State:      state,
		Partitions: make(map[string]Partition),
		Volumes:    make(map[string]Volume),
	}
}
