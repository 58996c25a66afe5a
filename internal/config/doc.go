// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Channels may be written as a bare name or as a mapping with product_ids:
//
//	subscription:
//	  product_ids: [BTC-USD, ETH-USD]
//	  channels:
//	    - heartbeat
//	    - name: level2
//	      product_ids: [BTC-USD]
package config
