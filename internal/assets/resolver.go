package assets

// AssetResolver asks each loader in turn; a not-found error moves on to the
// next one, any other error is returned as is.
type AssetResolver struct {
	loaders []AssetLoader // custom first, embedded last
}

var _ AssetLoader = (*AssetResolver)(nil)

// NewAssetResolver layers customBasePath, when set, over the embedded assets.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	r := &AssetResolver{}
	if customBasePath != "" {
		custom, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		r.loaders = append(r.loaders, custom)
	}
	r.loaders = append(r.loaders, embedded)
	return r, nil
}

func (r *AssetResolver) LoadPreset(name string) (string, error) {
	return r.first(func(l AssetLoader) (string, error) { return l.LoadPreset(name) })
}

func (r *AssetResolver) LoadTemplate(name string) (string, error) {
	return r.first(func(l AssetLoader) (string, error) { return l.LoadTemplate(name) })
}

func (r *AssetResolver) first(load func(AssetLoader) (string, error)) (string, error) {
	var err error
	for _, l := range r.loaders {
		var content string
		if content, err = load(l); err == nil || !isNotFound(err) {
			return content, err
		}
	}
	return "", err
}
